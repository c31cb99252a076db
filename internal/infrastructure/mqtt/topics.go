package mqtt

import "fmt"

// Topics provides builders for purifier topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	status := topics.DeviceStatus("438", "NK6-EU-MHA0000A")
//	// Returns: "438/NK6-EU-MHA0000A/status/current"
type Topics struct{}

// DeviceStatus returns the topic a device publishes its state on.
//
// Example: 438/NK6-EU-MHA0000A/status/current
func (Topics) DeviceStatus(productType, serial string) string {
	return fmt.Sprintf("%s/%s/status/current", productType, serial)
}

// DeviceCommand returns the topic a device accepts commands on.
//
// Example: 438/NK6-EU-MHA0000A/command
func (Topics) DeviceCommand(productType, serial string) string {
	return fmt.Sprintf("%s/%s/command", productType, serial)
}

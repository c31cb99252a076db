package device

import (
	"fmt"
	"slices"
	"strings"
)

// Generation distinguishes the two sensor layouts.
type Generation string

const (
	// Legacy devices report a combined dust (pact) and VOC (vact) proxy and
	// speak MQTT 3.1.
	Legacy Generation = "legacy"

	// Advanced devices report separate PM2.5, PM10, VOC and NO2 sensors and
	// speak MQTT 3.1.1.
	Advanced Generation = "advanced"
)

// Descriptor is one entry of the cloud manifest.
type Descriptor struct {
	Serial           string `json:"Serial"`
	Name             string `json:"Name"`
	ProductType      string `json:"ProductType"`
	LocalCredentials string `json:"LocalCredentials"`
}

// Device is a registered purifier and its resolved LAN address.
type Device struct {
	Serial           string
	Name             string
	ProductType      string
	Generation       Generation
	LocalCredentials string

	// IP is empty until resolved.
	IP string
}

// Resolved reports whether the device has a cached address.
func (d *Device) Resolved() bool { return d.IP != "" }

// String returns "Name (Serial)" for log messages.
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.Serial)
}

// Classifier maps product types to generations.
type Classifier struct {
	advanced []string
}

// NewClassifier returns a Classifier that treats the given product types
// as Advanced and everything else as Legacy. Matching is case-insensitive.
func NewClassifier(advancedProductTypes []string) Classifier {
	adv := make([]string, 0, len(advancedProductTypes))
	for _, pt := range advancedProductTypes {
		adv = append(adv, strings.ToUpper(strings.TrimSpace(pt)))
	}
	return Classifier{advanced: adv}
}

// Generation returns the generation for productType.
func (c Classifier) Generation(productType string) Generation {
	if slices.Contains(c.advanced, strings.ToUpper(strings.TrimSpace(productType))) {
		return Advanced
	}
	return Legacy
}

// Package mqtt provides connectivity to the MQTT broker embedded in each
// purifier.
//
// This package manages:
//   - Short-lived connections authenticated with the device serial and its
//     decrypted local credential
//   - Per-device protocol selection (MQTT 3.1 for legacy firmware, 3.1.1 otherwise)
//   - Subscribe and publish with bounded waits
//   - Immediate disconnect with no quiesce period
//
// # Architecture
//
// The collector is a client of many small brokers, one per purifier. Each
// poll opens a connection, performs one request/response exchange and
// closes it again. Nothing reconnects automatically and no connection is
// held between passes.
//
//	Collector → purifier broker (tcp://<ip>:1883)
//
// # Security Considerations
//
//   - Devices only offer plain TCP on the LAN
//   - Passwords are never logged
//
// # Usage
//
//	client, err := mqtt.Dial(ctx, mqtt.Options{
//	    Host: ip, Port: 1883,
//	    Username: serial, Password: creds.Password(),
//	    ProtocolVersion: mqtt.ProtocolV311,
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{}
//	err = client.Subscribe(ctx, topics.DeviceStatus(pt, serial), 0, handler)
//	err = client.Publish(ctx, topics.DeviceCommand(pt, serial), payload, 0)
package mqtt

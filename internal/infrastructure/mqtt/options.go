package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for CONNACK.
	defaultConnectTimeout = 10 * time.Second

	// defaultOperationTimeout bounds SUBACK and PUBACK waits.
	defaultOperationTimeout = 5 * time.Second

	// disconnectQuiesce is zero: sessions close without waiting for in-flight work.
	disconnectQuiesce = 0

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 30 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// clientIDPrefix prefixes generated client identifiers.
	clientIDPrefix = "purifier-collector-"
)

// Protocol versions understood by purifier firmware.
const (
	// ProtocolV31 is MQTT 3.1 ("MQIsdp"), required by legacy devices.
	ProtocolV31 uint = 3

	// ProtocolV311 is MQTT 3.1.1.
	ProtocolV311 uint = 4
)

// Options describes one short-lived connection to a device-local broker.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string

	// ClientID defaults to a random identifier.
	ClientID string

	// ProtocolVersion is ProtocolV31 or ProtocolV311.
	ProtocolVersion uint

	// ConnectTimeout bounds the CONNECT/CONNACK exchange.
	ConnectTimeout time.Duration
}

// BrokerURL returns the tcp:// URL for the options.
func (o Options) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", o.Host, o.Port)
}

// buildClientOptions creates paho MQTT options for a device session.
//
// This configures:
//   - Broker URL (tcp://, devices do not offer TLS)
//   - Client ID, generated when not supplied
//   - Username (device serial) and password (decrypted credential)
//   - Explicit protocol version with no fallback
//   - No auto-reconnect or connect retry; a failed session ends the attempt
//   - Clean session mode
func buildClientOptions(o Options) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(o.BrokerURL())

	clientID := o.ClientID
	if clientID == "" {
		clientID = clientIDPrefix + uuid.NewString()[:8]
	}
	opts.SetClientID(clientID)

	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	version := o.ProtocolVersion
	if version != ProtocolV31 {
		version = ProtocolV311
	}
	opts.SetProtocolVersion(version)

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	timeout := o.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	opts.SetConnectTimeout(timeout)
	opts.SetKeepAlive(defaultKeepAlive)

	return opts
}

package session

//go:generate mockgen -destination=mock_session.go -package=session github.com/nerrad567/purifier-collector/internal/session Conn,Dialer

import (
	"context"
	"time"

	"github.com/nerrad567/purifier-collector/internal/device"
	"github.com/nerrad567/purifier-collector/internal/infrastructure/mqtt"
)

// Target is everything needed to open a device connection.
type Target struct {
	Host       string
	Port       int
	Serial     string
	Password   string
	Generation device.Generation
}

// Conn is an open device connection. *mqtt.Client satisfies it.
type Conn interface {
	Subscribe(ctx context.Context, topic string, qos byte, handler mqtt.MessageHandler) error
	Publish(ctx context.Context, topic string, payload []byte, qos byte) error
	Close()
}

// Dialer opens device connections.
type Dialer interface {
	Dial(ctx context.Context, t Target) (Conn, error)
}

// MQTTDialer dials purifiers with the paho-based mqtt client.
type MQTTDialer struct {
	ConnectTimeout time.Duration
	Logger         mqtt.Logger
}

// Dial connects with MQTT 3.1 for legacy devices and 3.1.1 otherwise.
func (d MQTTDialer) Dial(ctx context.Context, t Target) (Conn, error) {
	version := mqtt.ProtocolV311
	if t.Generation == device.Legacy {
		version = mqtt.ProtocolV31
	}

	c, err := mqtt.Dial(ctx, mqtt.Options{
		Host:            t.Host,
		Port:            t.Port,
		Username:        t.Serial,
		Password:        t.Password,
		ProtocolVersion: version,
		ConnectTimeout:  d.ConnectTimeout,
	})
	if err != nil {
		return nil, err
	}
	if d.Logger != nil {
		c.SetLogger(d.Logger)
	}
	return c, nil
}

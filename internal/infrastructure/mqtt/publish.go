package mqtt

import (
	"context"
	"fmt"
)

// Maximum payload size for MQTT messages (64KB). Device commands are tiny.
const maxPayloadSize = 64 << 10

// Publish sends a message to the specified topic and waits for the broker
// to accept it.
//
// Parameters:
//   - ctx: bounds the wait in addition to the operation timeout
//   - topic: e.g. "438/NK6-EU-MHA0000A/command"
//   - payload: JSON command
//   - qos: Quality of Service level (0, 1, or 2)
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Publish(ctx context.Context, topic string, payload []byte, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	if err := waitToken(ctx, c.client.Publish(topic, qos, false, payload), defaultOperationTimeout); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

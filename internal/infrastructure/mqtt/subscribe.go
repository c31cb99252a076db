package mqtt

import (
	"context"
	"fmt"
)

// Subscribe registers a handler for messages on the specified topic and
// waits for SUBACK.
//
// Parameters:
//   - ctx: bounds the wait in addition to the operation timeout
//   - topic: e.g. "438/NK6-EU-MHA0000A/status/current"
//   - qos: Maximum QoS level for received messages (0, 1, or 2)
//   - handler: Callback function invoked for each message
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Subscribe(ctx context.Context, topic string, qos byte, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	if err := waitToken(ctx, c.client.Subscribe(topic, qos, c.wrapHandler(handler)), defaultOperationTimeout); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

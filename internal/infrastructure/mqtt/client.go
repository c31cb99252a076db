package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client is a short-lived connection to a purifier's local broker.
//
// Unlike a long-running bus client it never reconnects and never restores
// subscriptions: one Client serves one request/response round trip and is
// then closed.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Close is idempotent.
type Client struct {
	client pahomqtt.Client
	opts   Options

	closeOnce sync.Once
	closed    atomic.Bool

	// logger for handler error/panic logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked on paho's router goroutine. They should hand the
// payload off and return quickly.
//
// Returns:
//   - error: Logged but does not affect message acknowledgment
type MessageHandler func(topic string, payload []byte) error

// Dial connects to a device broker.
//
// Parameters:
//   - ctx: cancels the connection attempt
//   - o: broker address, credentials and protocol version
//
// Returns:
//   - *Client: Connected client ready for one round trip
//   - error: wraps ErrConnectionFailed or ErrTimeout
func Dial(ctx context.Context, o Options) (*Client, error) {
	c := &Client{opts: o}
	c.client = pahomqtt.NewClient(buildClientOptions(o))

	timeout := o.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	if err := waitToken(ctx, c.client.Connect(), timeout); err != nil {
		c.client.Disconnect(disconnectQuiesce)
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, o.BrokerURL(), err)
	}

	return c, nil
}

// waitToken blocks until the token completes, ctx ends or timeout elapses.
func waitToken(ctx context.Context, token pahomqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w after %v", ErrTimeout, timeout)
	}
}

// Close disconnects without waiting for in-flight operations.
// Safe to call more than once and on a nil Client.
func (c *Client) Close() {
	if c == nil || c.client == nil {
		return
	}
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.client.Disconnect(disconnectQuiesce)
	})
}

// IsConnected returns the current connection state. A closed client is
// never connected, even while paho is still tearing the socket down.
func (c *Client) IsConnected() bool {
	return c != nil && c.client != nil && !c.closed.Load() && c.client.IsConnected()
}

// SetLogger sets a logger for handler error and panic logging.
// If not set, errors in handlers are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// wrapHandler wraps a MessageHandler with panic recovery and optional logging.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := c.getLogger(); logger != nil {
					logger.Error("MQTT handler panic recovered",
						"topic", msg.Topic(),
						"panic", r,
					)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Warn("MQTT handler returned error",
					"topic", msg.Topic(),
					"error", err,
				)
			}
		}
	}
}

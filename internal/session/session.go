package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/purifier-collector/internal/credential"
	"github.com/nerrad567/purifier-collector/internal/device"
	"github.com/nerrad567/purifier-collector/internal/infrastructure/mqtt"
	"github.com/nerrad567/purifier-collector/internal/sensor"
)

// Message types on the device topics.
const (
	requestCurrentState = "REQUEST-CURRENT-STATE"
	sensorDataMessage   = "ENVIRONMENTAL-CURRENT-SENSOR-DATA"
)

// qos used for both the status subscription and the command.
const qos = 1

const defaultResponseTimeout = 5 * time.Minute

// Logger defines the logging interface used by Session.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config tunes a Session.
type Config struct {
	// Port of the device broker.
	Port int

	// ResponseTimeout bounds AwaitingData. Defaults to five minutes.
	ResponseTimeout time.Duration
}

// Session performs round trips. It holds no per-device state and can be
// reused for every device of a pass, one at a time.
type Session struct {
	dialer  Dialer
	port    int
	timeout time.Duration
	now     func() time.Time

	logger   Logger
	observer Observer
}

// New creates a Session.
func New(dialer Dialer, cfg Config) *Session {
	timeout := cfg.ResponseTimeout
	if timeout <= 0 {
		timeout = defaultResponseTimeout
	}
	return &Session{
		dialer:  dialer,
		port:    cfg.Port,
		timeout: timeout,
		now:     time.Now,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger.
func (s *Session) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.logger = logger
}

// SetObserver registers a callback for every state transition.
func (s *Session) SetObserver(o Observer) {
	s.observer = o
}

// Run performs one round trip with d and returns the decoded reading.
//
// The device must be resolved. Errors wrap credential.ErrCredential,
// device.ErrUnreachable, ErrProtocol, ErrNoData or the context error.
func (s *Session) Run(ctx context.Context, d *device.Device) (sensor.Reading, error) {
	r := &round{session: s, device: d, state: Connecting}
	return r.run(ctx)
}

// round is the state of a single round trip.
type round struct {
	session *Session
	device  *device.Device
	state   State
	conn    Conn
}

func (r *round) run(ctx context.Context) (sensor.Reading, error) {
	s := r.session
	d := r.device

	// Connecting
	creds, err := credential.Decrypt(d.LocalCredentials)
	if err != nil {
		return sensor.Reading{}, r.fail(fmt.Errorf("%s: %w", d, err))
	}
	if !d.Resolved() {
		return sensor.Reading{}, r.fail(fmt.Errorf("%w: %s has no address", device.ErrUnreachable, d))
	}

	conn, err := s.dialer.Dial(ctx, Target{
		Host:       d.IP,
		Port:       s.port,
		Serial:     d.Serial,
		Password:   creds.Password(),
		Generation: d.Generation,
	})
	if err != nil {
		return sensor.Reading{}, r.fail(fmt.Errorf("%w: %s at %s: %w", device.ErrUnreachable, d, d.IP, err))
	}
	r.conn = conn
	r.transition(Connected)

	// Connected
	matches := make(chan map[string]json.RawMessage, 1)
	topics := mqtt.Topics{}
	if err := conn.Subscribe(ctx, topics.DeviceStatus(d.ProductType, d.Serial), qos, r.handler(matches)); err != nil {
		return sensor.Reading{}, r.fail(fmt.Errorf("%w: %s: %w", ErrProtocol, d, err))
	}

	cmd, err := s.command()
	if err != nil {
		return sensor.Reading{}, r.fail(fmt.Errorf("%w: %w", ErrProtocol, err))
	}
	if err := conn.Publish(ctx, topics.DeviceCommand(d.ProductType, d.Serial), cmd, qos); err != nil {
		return sensor.Reading{}, r.fail(fmt.Errorf("%w: %s: %w", ErrProtocol, d, err))
	}
	r.transition(AwaitingData)

	// AwaitingData
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case data := <-matches:
		reading := sensor.Decode(data, d.Generation)
		r.transition(Closing)
		r.close()
		return reading, nil
	case <-timer.C:
		return sensor.Reading{}, r.fail(fmt.Errorf("%w: %s within %v", ErrNoData, d, s.timeout))
	case <-ctx.Done():
		return sensor.Reading{}, r.fail(ctx.Err())
	}
}

// handler forwards the first sensor data message and discards the rest.
func (r *round) handler(matches chan<- map[string]json.RawMessage) mqtt.MessageHandler {
	var once sync.Once
	return func(_ string, payload []byte) error {
		var msg struct {
			Msg  string                     `json:"msg"`
			Data map[string]json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			r.session.logger.Debug("discarding unparseable device message",
				"serial", r.device.Serial, "error", err)
			return nil
		}
		if msg.Msg != sensorDataMessage {
			r.session.logger.Debug("discarding device message",
				"serial", r.device.Serial, "msg", msg.Msg)
			return nil
		}
		once.Do(func() { matches <- msg.Data })
		return nil
	}
}

// command builds the REQUEST-CURRENT-STATE payload.
func (s *Session) command() ([]byte, error) {
	return json.Marshal(struct {
		Msg  string `json:"msg"`
		Time string `json:"time"`
	}{
		Msg:  requestCurrentState,
		Time: s.now().UTC().Format(time.RFC3339),
	})
}

// fail moves to Error, closes whatever is open and returns err.
func (r *round) fail(err error) error {
	r.transition(Error)
	r.transition(Closing)
	r.close()

	s := r.session
	switch {
	case errors.Is(err, ErrNoData):
		s.logger.Warn("device did not answer", "serial", r.device.Serial, "name", r.device.Name, "error", err)
	case errors.Is(err, context.Canceled):
		s.logger.Debug("session cancelled", "serial", r.device.Serial, "name", r.device.Name)
	default:
		s.logger.Error("device session failed", "serial", r.device.Serial, "name", r.device.Name, "error", err)
	}
	return err
}

// close ends the connection without waiting for acknowledgement.
func (r *round) close() {
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
	r.transition(Closed)
}

func (r *round) transition(to State) {
	from := r.state
	if from == to {
		return
	}
	if !canTransition(from, to) {
		r.session.logger.Error("illegal session transition",
			"serial", r.device.Serial, "from", from.String(), "to", to.String())
		return
	}
	r.state = to
	r.session.notify(r.device.Serial, from, to)
}

func (s *Session) notify(serial string, from, to State) {
	if s.observer != nil {
		s.observer(serial, from, to)
	}
}

package simulator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
)

// Message types exchanged with a purifier.
const (
	RequestCurrentState = "REQUEST-CURRENT-STATE"
	SensorData          = "ENVIRONMENTAL-CURRENT-SENSOR-DATA"
	CurrentState        = "CURRENT-STATE"
)

// Purifier describes one simulated device.
type Purifier struct {
	Serial      string
	ProductType string
	Password    string

	// Data is sent as the "data" object of the sensor message.
	Data map[string]any

	// Noise is a list of message types published before the sensor data.
	Noise []string

	// Silent devices accept commands but never answer.
	Silent bool
}

// Broker is a running simulated purifier broker.
type Broker struct {
	server *mochi.Server
	host   string
	port   int

	closeOnce sync.Once
	closeErr  error

	mu        sync.Mutex
	devices   map[string]*Purifier
	versions  map[string]byte
	commands  map[string]int
	connects  map[string]int
	rejects   int
	lastCmd   map[string][]byte
	published []string
}

// Start launches a broker on a free loopback port serving the given devices.
func Start(devices ...Purifier) (*Broker, error) {
	port, err := freePort()
	if err != nil {
		return nil, err
	}

	b := &Broker{
		host:     "127.0.0.1",
		port:     port,
		devices:  make(map[string]*Purifier),
		versions: make(map[string]byte),
		commands: make(map[string]int),
		connects: make(map[string]int),
		lastCmd:  make(map[string][]byte),
	}
	for i := range devices {
		d := devices[i]
		b.devices[d.Serial] = &d
	}

	b.server = mochi.New(&mochi.Options{
		InlineClient: true,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err := b.server.AddHook(&hook{broker: b}, nil); err != nil {
		return nil, fmt.Errorf("adding simulator hook: %w", err)
	}

	tcp := listeners.NewTCP(listeners.Config{
		ID:      "purifier",
		Type:    "tcp",
		Address: net.JoinHostPort(b.host, strconv.Itoa(port)),
	})
	if err := b.server.AddListener(tcp); err != nil {
		return nil, fmt.Errorf("adding simulator listener: %w", err)
	}
	if err := b.server.Serve(); err != nil {
		return nil, fmt.Errorf("starting simulator: %w", err)
	}

	return b, nil
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("finding free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// Host returns the loopback address the broker listens on.
func (b *Broker) Host() string { return b.host }

// Port returns the TCP port the broker listens on.
func (b *Broker) Port() int { return b.port }

// Close stops the broker. Later calls return the first call's result.
func (b *Broker) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = b.server.Close()
	})
	return b.closeErr
}

// SetSilent toggles whether a device answers commands.
func (b *Broker) SetSilent(serial string, silent bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d, ok := b.devices[serial]; ok {
		d.Silent = silent
	}
}

// Commands returns how many REQUEST-CURRENT-STATE commands a device received.
func (b *Broker) Commands(serial string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.commands[serial]
}

// Connects returns how many successful connections a device accepted.
func (b *Broker) Connects(serial string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connects[serial]
}

// Rejects returns how many connections were refused for bad credentials.
func (b *Broker) Rejects() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rejects
}

// ProtocolVersion returns the MQTT protocol version the last client
// authenticated as serial used.
func (b *Broker) ProtocolVersion(serial string) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.versions[serial]
}

// LastCommand returns the raw payload of the last command to a device.
func (b *Broker) LastCommand(serial string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastCmd[serial]
}

// Connected reports whether any client authenticated as serial is still connected.
func (b *Broker) Connected(serial string) bool {
	for _, cl := range b.server.Clients.GetAll() {
		if string(cl.Properties.Username) == serial && !cl.Closed() {
			return true
		}
	}
	return false
}

// respond publishes the scripted answer for a device.
func (b *Broker) respond(d Purifier) {
	status := fmt.Sprintf("%s/%s/status/current", d.ProductType, d.Serial)
	now := time.Now().UTC().Format(time.RFC3339)

	for _, msg := range d.Noise {
		payload, _ := json.Marshal(map[string]any{"msg": msg, "time": now})
		_ = b.server.Publish(status, payload, false, 0)
	}
	if d.Silent {
		return
	}

	payload, _ := json.Marshal(map[string]any{"msg": SensorData, "time": now, "data": d.Data})
	_ = b.server.Publish(status, payload, false, 0)
}

// hook authenticates clients and answers commands.
type hook struct {
	mochi.HookBase
	broker *Broker
}

func (h *hook) ID() string { return "purifier-simulator" }

func (h *hook) Provides(b byte) bool {
	return bytes.Contains([]byte{
		mochi.OnConnectAuthenticate,
		mochi.OnACLCheck,
		mochi.OnPublished,
	}, []byte{b})
}

func (h *hook) OnConnectAuthenticate(cl *mochi.Client, pk packets.Packet) bool {
	b := h.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	serial := string(pk.Connect.Username)
	d, ok := b.devices[serial]
	if !ok || d.Password != string(pk.Connect.Password) {
		b.rejects++
		return false
	}
	b.connects[serial]++
	b.versions[serial] = cl.Properties.ProtocolVersion
	return true
}

func (h *hook) OnACLCheck(*mochi.Client, string, bool) bool { return true }

func (h *hook) OnPublished(cl *mochi.Client, pk packets.Packet) {
	if cl == nil || cl.Net.Inline {
		return
	}

	var cmd struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(pk.Payload, &cmd); err != nil || cmd.Msg != RequestCurrentState {
		return
	}

	b := h.broker
	b.mu.Lock()
	var target *Purifier
	for _, d := range b.devices {
		if pk.TopicName == fmt.Sprintf("%s/%s/command", d.ProductType, d.Serial) {
			target = d
			break
		}
	}
	if target == nil {
		b.mu.Unlock()
		return
	}
	b.commands[target.Serial]++
	b.lastCmd[target.Serial] = append([]byte(nil), pk.Payload...)
	snapshot := *target
	b.mu.Unlock()

	go b.respond(snapshot)
}

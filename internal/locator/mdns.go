package locator

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/pion/mdns/v2"
	"golang.org/x/net/ipv4"
)

// MDNSDiscoverer resolves <serial><suffix> via multicast DNS.
//
// The multicast socket is opened on first use and reused until Close.
type MDNSDiscoverer struct {
	suffix string

	mu   sync.Mutex
	conn *mdns.Conn
}

// NewMDNSDiscoverer creates an MDNSDiscoverer. An empty suffix means ".local".
func NewMDNSDiscoverer(suffix string) *MDNSDiscoverer {
	if suffix == "" {
		suffix = ".local"
	}
	return &MDNSDiscoverer{suffix: suffix}
}

// hostname builds the query name for a serial.
func (m *MDNSDiscoverer) hostname(serial string) string {
	suffix := m.suffix
	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	return strings.ToLower(serial) + suffix
}

func (m *MDNSDiscoverer) server() (*mdns.Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		return m.conn, nil
	}

	addr, err := net.ResolveUDPAddr("udp4", mdns.DefaultAddressIPv4)
	if err != nil {
		return nil, fmt.Errorf("resolving mdns address: %w", err)
	}
	l, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("opening mdns socket: %w", err)
	}
	conn, err := mdns.Server(ipv4.NewPacketConn(l), nil, &mdns.Config{})
	if err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("starting mdns: %w", err)
	}
	m.conn = conn
	return conn, nil
}

// Lookup queries the network until ctx expires.
func (m *MDNSDiscoverer) Lookup(ctx context.Context, serial string) (string, error) {
	conn, err := m.server()
	if err != nil {
		return "", err
	}

	_, addr, err := conn.QueryAddr(ctx, m.hostname(serial))
	if err != nil {
		return "", fmt.Errorf("%w: mdns query %s: %w", ErrNoAddress, m.hostname(serial), err)
	}
	return addr.String(), nil
}

// Close releases the multicast socket.
func (m *MDNSDiscoverer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	return err
}

package locator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/nerrad567/purifier-collector/internal/secrets"
)

// StaticDiscoverer reads pinned addresses from the secret store.
type StaticDiscoverer struct {
	store secrets.Store
}

// NewStaticDiscoverer creates a StaticDiscoverer.
func NewStaticDiscoverer(store secrets.Store) *StaticDiscoverer {
	return &StaticDiscoverer{store: store}
}

// Lookup returns the address stored under device_ip.<serial>.
func (s *StaticDiscoverer) Lookup(ctx context.Context, serial string) (string, error) {
	v, err := s.store.Get(ctx, secrets.DeviceIPKey(serial))
	if errors.Is(err, secrets.ErrNotFound) {
		return "", ErrNoAddress
	}
	if err != nil {
		return "", err
	}
	v = strings.TrimSpace(v)
	if net.ParseIP(v) == nil {
		return "", fmt.Errorf("%w: stored value %q is not an IP", ErrNoAddress, v)
	}
	return v, nil
}

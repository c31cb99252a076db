package locator

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/purifier-collector/internal/device"
)

// defaultTimeout bounds a single discovery lookup.
const defaultTimeout = 5 * time.Second

// Locator resolves device addresses against a device.Cache.
type Locator struct {
	discoverer Discoverer
	timeout    time.Duration
	logger     Logger
}

// New creates a Locator. A zero timeout selects the default.
func New(discoverer Discoverer, timeout time.Duration) *Locator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Locator{discoverer: discoverer, timeout: timeout, logger: noopLogger{}}
}

// SetLogger sets the logger for the locator.
func (l *Locator) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	l.logger = logger
}

// Resolve returns the device's address, discovering and caching it if needed.
//
// Returns:
//   - string: the IP address
//   - error: wraps ErrUnresolved and device.ErrUnreachable on failure
func (l *Locator) Resolve(ctx context.Context, cache *device.Cache, d *device.Device) (string, error) {
	if d.Resolved() {
		return d.IP, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ip, err := l.discoverer.Lookup(lookupCtx, d.Serial)
	if err == nil && ip == "" {
		err = ErrNoAddress
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w: %s: %w", ErrUnresolved, device.ErrUnreachable, d.Serial, err)
	}

	cache.SetIP(d.Serial, ip)
	l.logger.Info("device address resolved", "serial", d.Serial, "name", d.Name, "ip", ip)
	return ip, nil
}

// Invalidate forgets a cached address so the next pass rediscovers it.
func (l *Locator) Invalidate(cache *device.Cache, serial string) {
	d, ok := cache.Get(serial)
	if !ok || !d.Resolved() {
		return
	}
	l.logger.Info("device address invalidated", "serial", serial, "name", d.Name, "ip", d.IP)
	cache.ClearIP(serial)
}

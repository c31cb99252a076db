package locator

import (
	"context"
	"errors"
)

// ChainDiscoverer tries each Discoverer in order and returns the first answer.
type ChainDiscoverer struct {
	discoverers []Discoverer
}

// NewChainDiscoverer creates a ChainDiscoverer.
func NewChainDiscoverer(discoverers ...Discoverer) *ChainDiscoverer {
	return &ChainDiscoverer{discoverers: discoverers}
}

// Lookup returns the first successful lookup, or all errors joined.
func (c *ChainDiscoverer) Lookup(ctx context.Context, serial string) (string, error) {
	var errs []error
	for _, d := range c.discoverers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		ip, err := d.Lookup(ctx, serial)
		if err == nil && ip != "" {
			return ip, nil
		}
		if err == nil {
			err = ErrNoAddress
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", ErrNoAddress
	}
	return "", errors.Join(errs...)
}

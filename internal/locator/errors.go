package locator

import "errors"

var (
	// ErrUnresolved is returned by Resolve when discovery fails. It wraps
	// device.ErrUnreachable.
	ErrUnresolved = errors.New("locator: address unresolved")

	// ErrNoAddress is returned by a Discoverer that has no answer for a serial.
	ErrNoAddress = errors.New("locator: no address for serial")
)

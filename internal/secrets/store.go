package secrets

import (
	"context"
	"errors"
)

// Well-known keys.
const (
	KeyUsername    = "cloud.username"
	KeyPassword    = "cloud.password"
	KeyToken       = "cloud.token"
	KeyChallengeID = "cloud.challenge_id"
	KeyOTPCode     = "cloud.otp_code"

	deviceIPPrefix = "device_ip."
)

// Store is a minimal key-value secret store.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Put creates or replaces key.
	Put(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// DeviceIPKey returns the key holding a static address for serial.
func DeviceIPKey(serial string) string {
	return deviceIPPrefix + serial
}

// Lookup is Get with ErrNotFound folded into ok=false.
func Lookup(ctx context.Context, s Store, key string) (value string, ok bool, err error) {
	value, err = s.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return value, value != "", nil
}

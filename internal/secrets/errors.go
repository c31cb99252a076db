package secrets

import "errors"

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("secrets: key not found")

	// ErrBackend wraps failures of the underlying storage.
	ErrBackend = errors.New("secrets: backend failure")
)

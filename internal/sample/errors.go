package sample

import "errors"

var (
	// ErrPersistence is returned when a store did not record exactly one sample.
	ErrPersistence = errors.New("sample: persistence failed")

	// ErrInvalidSpan is returned for an unknown history duration.
	ErrInvalidSpan = errors.New("sample: invalid span")
)

package sample

//go:generate mockgen -destination=mock_sample.go -package=sample github.com/nerrad567/purifier-collector/internal/sample Writer,Reader

import (
	"context"
	"time"
)

// currentWindow bounds how old a "current" reading may be.
const currentWindow = time.Hour

// Writer persists samples. Write succeeds iff exactly one record was
// stored; any other outcome wraps ErrPersistence.
type Writer interface {
	Write(ctx context.Context, s Sample) error
}

// Reader serves the read API.
type Reader interface {
	// Current returns the latest sample per location recorded in the last hour.
	Current(ctx context.Context) ([]Sample, error)

	// History returns bucketed aggregates for one device over span.
	History(ctx context.Context, serial string, span Span) ([]Point, error)
}

package sample

import (
	"context"
	"sync/atomic"
)

// Logger defines the logging interface used by Recorder.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder writes samples and absorbs failures: a failed write is logged
// with the device serial and name and the sample is dropped.
//
// Thread Safety:
//   - Record is safe for concurrent use; counters are atomic.
type Recorder struct {
	writer Writer
	logger Logger

	written atomic.Uint64
	dropped atomic.Uint64
}

// NewRecorder wraps w.
func NewRecorder(w Writer) *Recorder {
	return &Recorder{writer: w, logger: noopLogger{}}
}

// SetLogger sets the logger.
func (r *Recorder) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// Record writes s and reports whether it was stored. It never returns an error.
func (r *Recorder) Record(ctx context.Context, s Sample) bool {
	if err := r.writer.Write(ctx, s); err != nil {
		r.dropped.Add(1)
		r.logger.Error("dropping sample",
			"serial", s.Serial,
			"name", s.Location,
			"error", err,
		)
		return false
	}

	r.written.Add(1)
	r.logger.Debug("sample recorded",
		"serial", s.Serial,
		"name", s.Location,
		"air_quality", s.AirQuality,
	)
	return true
}

// Written returns the number of samples stored since start.
func (r *Recorder) Written() uint64 { return r.written.Load() }

// Dropped returns the number of samples lost to store failures since start.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

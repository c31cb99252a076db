package collector

import (
	"context"

	"github.com/nerrad567/purifier-collector/internal/cloud"
	"github.com/nerrad567/purifier-collector/internal/device"
	"github.com/nerrad567/purifier-collector/internal/sample"
	"github.com/nerrad567/purifier-collector/internal/sensor"
)

// ManifestSource lists the account's devices.
type ManifestSource interface {
	Fetch(ctx context.Context, cred cloud.Credential) ([]device.Descriptor, error)
}

// Resolver finds and forgets device addresses. *locator.Locator satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, cache *device.Cache, d *device.Device) (string, error)
	Invalidate(cache *device.Cache, serial string)
}

// Sampler performs one round trip with a device. *session.Session satisfies it.
type Sampler interface {
	Run(ctx context.Context, d *device.Device) (sensor.Reading, error)
}

// Recorder persists a sample and absorbs failures. *sample.Recorder satisfies it.
type Recorder interface {
	Record(ctx context.Context, s sample.Sample) bool
}

// Logger defines the logging interface used by the Scheduler.
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

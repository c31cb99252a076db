package locator

//go:generate mockgen -destination=mock_locator.go -package=locator github.com/nerrad567/purifier-collector/internal/locator Discoverer

import "context"

// Discoverer finds the LAN address of a device by serial.
type Discoverer interface {
	// Lookup returns an IP address for serial or an error. Implementations
	// must honour ctx cancellation.
	Lookup(ctx context.Context, serial string) (string, error)
}

// Logger defines the logging interface used by the Locator.
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

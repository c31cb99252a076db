// Package api implements the read-only HTTP API of the purifier collector.
//
// It exposes the latest samples per location, bucketed history for one
// device, and the scheduler's pass statistics:
//
//	GET /api/v1/health
//	GET /api/v1/sensors/current
//	GET /api/v1/sensors/{serial}?durationSpan=hour|day|week|month|year
//	GET /api/v1/metrics
//
// The server only reads. It never touches the device cache or the
// scheduler beyond its atomic stats snapshot.
package api

package collector

import "time"

// CycleReport summarises one pass.
type CycleReport struct {
	Started  time.Time
	Duration time.Duration

	// Devices is the number of devices known after the manifest step.
	Devices int

	// Unresolved lists serials with no address this pass.
	Unresolved []string

	// Failed lists serials whose session failed.
	Failed []string

	Sampled   int
	Persisted int

	// Err is set when the pass stopped before reaching the devices:
	// authentication pending or failed, or the manifest was unavailable.
	Err error
}

// NeedsRetry reports whether the pass should be repeated early.
func (r CycleReport) NeedsRetry() bool {
	return r.Err == nil && (len(r.Unresolved) > 0 || len(r.Failed) > 0)
}

// Stats is a point-in-time view of the scheduler for the read API.
type Stats struct {
	Cycles          uint64        `json:"cycles"`
	LastCycleAt     time.Time     `json:"last_cycle_at"`
	LastDuration    time.Duration `json:"last_duration_ns"`
	Devices         int           `json:"devices"`
	LastSampled     int           `json:"last_sampled"`
	LastPersisted   int           `json:"last_persisted"`
	LastUnresolved  []string      `json:"last_unresolved"`
	LastFailed      []string      `json:"last_failed"`
	LastError       string        `json:"last_error,omitempty"`
	AcceleratedRuns int           `json:"accelerated_runs"`
	NextRunAt       time.Time     `json:"next_run_at"`
	TotalSamples    uint64        `json:"total_samples"`
}

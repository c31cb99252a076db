package collector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/nerrad567/purifier-collector/internal/cloud"
	"github.com/nerrad567/purifier-collector/internal/credential"
	"github.com/nerrad567/purifier-collector/internal/device"
	"github.com/nerrad567/purifier-collector/internal/sample"
)

// Config tunes the Scheduler.
type Config struct {
	// Interval between clean passes.
	Interval time.Duration

	// ManifestTTL is how long a fetched manifest is reused. Zero fetches
	// it every pass.
	ManifestTTL time.Duration

	// RetryInitialDelay and RetryMaxDelay bound the early-retry backoff.
	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration

	// RetryMaxAttempts is the number of consecutive early passes allowed
	// before falling back to Interval. Zero disables early retry.
	RetryMaxAttempts int
}

// Scheduler owns the device cache and runs passes.
type Scheduler struct {
	auth     cloud.Authenticator
	manifest ManifestSource
	resolver Resolver
	sampler  Sampler
	recorder Recorder
	classify device.Classifier
	cfg      Config

	cache       *device.Cache
	manifestAt  time.Time
	accelerated int

	now    func() time.Time
	wait   func(ctx context.Context, d time.Duration) error
	logger Logger

	cycles  atomic.Uint64
	samples atomic.Uint64
	stats   atomic.Pointer[Stats]

	runMu sync.Mutex
}

// New creates a Scheduler with an empty device cache.
func New(
	auth cloud.Authenticator,
	manifest ManifestSource,
	resolver Resolver,
	sampler Sampler,
	recorder Recorder,
	classify device.Classifier,
	cfg Config,
) *Scheduler {
	s := &Scheduler{
		auth:     auth,
		manifest: manifest,
		resolver: resolver,
		sampler:  sampler,
		recorder: recorder,
		classify: classify,
		cfg:      cfg,
		cache:    device.NewCache(),
		now:      time.Now,
		wait:     sleep,
		logger:   noopLogger{},
	}
	s.stats.Store(&Stats{})
	return s
}

// SetLogger sets the logger.
func (s *Scheduler) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.logger = logger
}

// Stats returns the latest snapshot. Safe to call from any goroutine.
func (s *Scheduler) Stats() Stats {
	return *s.stats.Load()
}

// sleep waits for d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run loops until ctx is cancelled. Device and cycle failures never end
// the loop; the returned error is always the context's.
func (s *Scheduler) Run(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	bo := s.newBackOff()
	for {
		report := s.RunCycle(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := s.nextDelay(report, bo)
		s.publishNextRun(delay)

		s.logger.Debug("waiting for next pass", "delay", delay, "accelerated", s.accelerated)
		if err := s.wait(ctx, delay); err != nil {
			return err
		}
	}
}

func (s *Scheduler) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	if s.cfg.RetryInitialDelay > 0 {
		bo.InitialInterval = s.cfg.RetryInitialDelay
	}
	if s.cfg.RetryMaxDelay > 0 {
		bo.MaxInterval = s.cfg.RetryMaxDelay
	}
	bo.Reset()
	return bo
}

// nextDelay picks the wait after a pass. A pass needing a retry runs again
// after the next backoff step until RetryMaxAttempts consecutive early
// passes have been spent; then the normal interval applies and the budget
// starts over.
func (s *Scheduler) nextDelay(report CycleReport, bo *backoff.ExponentialBackOff) time.Duration {
	if report.NeedsRetry() && s.accelerated < s.cfg.RetryMaxAttempts {
		s.accelerated++
		delay := bo.NextBackOff()
		if delay > bo.MaxInterval {
			delay = bo.MaxInterval
		}
		s.logger.Info("pass incomplete, retrying early",
			"unresolved", len(report.Unresolved),
			"failed", len(report.Failed),
			"attempt", s.accelerated,
			"max_attempts", s.cfg.RetryMaxAttempts,
			"delay", delay,
		)
		return delay
	}

	if report.NeedsRetry() {
		s.logger.Warn("early retry budget spent, waiting full interval",
			"unresolved", report.Unresolved,
			"failed", report.Failed,
			"interval", s.cfg.Interval,
		)
	}
	s.accelerated = 0
	bo.Reset()
	return s.cfg.Interval
}

// RunCycle performs one pass and returns what happened. It never panics
// on device failures and never returns early for a single device.
func (s *Scheduler) RunCycle(ctx context.Context) CycleReport {
	report := CycleReport{Started: s.now()}
	defer func() {
		report.Duration = s.now().Sub(report.Started)
		s.publish(report)
	}()

	if err := s.refreshManifest(ctx); err != nil {
		report.Err = err
		s.logCycleError(err)
		return report
	}

	devices := s.cache.Devices()
	report.Devices = len(devices)

	var ready []*device.Device
	for _, d := range devices {
		if _, err := s.resolver.Resolve(ctx, s.cache, d); err != nil {
			if ctx.Err() != nil {
				return report
			}
			report.Unresolved = append(report.Unresolved, d.Serial)
			s.logger.Warn("device unresolved", "serial", d.Serial, "name", d.Name, "error", err)
			continue
		}
		ready = append(ready, d)
	}

	for _, d := range ready {
		if ctx.Err() != nil {
			return report
		}

		reading, err := s.sampler.Run(ctx, d)
		if err != nil {
			if ctx.Err() != nil {
				return report
			}
			report.Failed = append(report.Failed, d.Serial)
			s.handleSessionError(d, err)
			continue
		}

		report.Sampled++
		if s.recorder.Record(ctx, sample.New(d, reading, s.now())) {
			report.Persisted++
			s.samples.Add(1)
		}
	}

	s.logger.Info("pass complete",
		"devices", report.Devices,
		"sampled", report.Sampled,
		"persisted", report.Persisted,
		"unresolved", len(report.Unresolved),
		"failed", len(report.Failed),
	)
	return report
}

// refreshManifest fetches the manifest when the cache is empty or stale.
func (s *Scheduler) refreshManifest(ctx context.Context) error {
	if s.cache.Len() > 0 && s.cfg.ManifestTTL > 0 && s.now().Sub(s.manifestAt) < s.cfg.ManifestTTL {
		return nil
	}

	cred, err := s.auth.Login(ctx)
	if err != nil {
		return err
	}

	descriptors, err := s.manifest.Fetch(ctx, cred)
	if err != nil {
		if errors.Is(err, cloud.ErrUnauthorized) {
			if ierr := s.auth.Invalidate(ctx); ierr != nil {
				s.logger.Warn("invalidating cloud credential", "error", ierr)
			}
		}
		return err
	}

	result := s.cache.Sync(descriptors, s.classify)
	s.manifestAt = s.now()
	s.logger.Info("manifest refreshed",
		"auth", cred.Scheme(),
		"devices", s.cache.Len(),
		"added", len(result.Added),
		"updated", len(result.Updated),
		"removed", len(result.Removed),
	)
	return nil
}

func (s *Scheduler) logCycleError(err error) {
	switch {
	case errors.Is(err, cloud.ErrAuthPending):
		s.logger.Warn("cloud login awaiting one-time code, skipping pass", "error", err)
	case errors.Is(err, cloud.ErrAccountInactive), errors.Is(err, cloud.ErrMissingAccount):
		s.logger.Error("cloud account unusable, skipping pass", "error", err)
	case errors.Is(err, context.Canceled):
	default:
		s.logger.Warn("cloud unavailable, skipping pass", "error", err)
	}
}

func (s *Scheduler) handleSessionError(d *device.Device, err error) {
	switch {
	case errors.Is(err, device.ErrUnreachable):
		// The address may have changed; rediscover it next pass.
		s.resolver.Invalidate(s.cache, d.Serial)
		s.logger.Warn("device unreachable", "serial", d.Serial, "name", d.Name, "error", err)
	case errors.Is(err, credential.ErrCredential):
		s.logger.Error("device credentials unusable", "serial", d.Serial, "name", d.Name, "error", err)
	default:
		s.logger.Warn("device session failed", "serial", d.Serial, "name", d.Name, "error", err)
	}
}

func (s *Scheduler) publish(r CycleReport) {
	prev := s.stats.Load()
	next := &Stats{
		Cycles:          s.cycles.Add(1),
		LastCycleAt:     r.Started,
		LastDuration:    r.Duration,
		Devices:         r.Devices,
		LastSampled:     r.Sampled,
		LastPersisted:   r.Persisted,
		LastUnresolved:  r.Unresolved,
		LastFailed:      r.Failed,
		AcceleratedRuns: s.accelerated,
		NextRunAt:       prev.NextRunAt,
		TotalSamples:    s.samples.Load(),
	}
	if r.Err != nil {
		next.LastError = r.Err.Error()
	}
	s.stats.Store(next)
}

func (s *Scheduler) publishNextRun(delay time.Duration) {
	next := *s.stats.Load()
	next.NextRunAt = s.now().Add(delay)
	next.AcceleratedRuns = s.accelerated
	s.stats.Store(&next)
}

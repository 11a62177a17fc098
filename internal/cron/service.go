package cron

import (
	"context"
	"time"

	"github.com/curbsideops/curbside-backend/internal/clock"
	"github.com/curbsideops/curbside-backend/pkg/config"
	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
	"github.com/curbsideops/curbside-backend/pkg/logger"
	"github.com/curbsideops/curbside-backend/pkg/metrics"
)

// Locker is the distributed-lock surface the worker needs. One lock per
// job keeps multiple worker replicas from running the same job twice.
type Locker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(name string) string
}

// Params wires the cron worker service.
type Params struct {
	Registry *Registry
	Locker   Locker
	Metrics  *metrics.CronJobMetrics
	Clock    *clock.Service
	Config   config.CronConfig
	Logger   *logger.Logger
}

// Service drives registered jobs off a single ticker.
type Service struct {
	registry *Registry
	locker   Locker
	metrics  *metrics.CronJobMetrics
	clock    *clock.Service
	cfg      config.CronConfig
	logg     *logger.Logger
	lastRuns map[string]time.Time
}

// New validates dependencies and returns the worker service.
func New(p Params) (*Service, error) {
	if p.Registry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cron registry required")
	}
	if p.Locker == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cron locker required")
	}
	if p.Clock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cron clock required")
	}
	if p.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cron logger required")
	}
	if p.Config.Tick <= 0 {
		p.Config.Tick = time.Minute
	}
	if p.Config.LockTTL <= 0 {
		p.Config.LockTTL = 30 * time.Minute
	}
	return &Service{
		registry: p.Registry,
		locker:   p.Locker,
		metrics:  p.Metrics,
		clock:    p.Clock,
		cfg:      p.Config,
		logg:     p.Logger,
		lastRuns: map[string]time.Time{},
	}, nil
}

// Run blocks, executing due jobs on every tick until the context ends.
func (s *Service) Run(ctx context.Context) error {
	s.logg.Info(ctx, "cron worker started")

	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron worker stopping")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one pass over the registry.
func (s *Service) Tick(ctx context.Context) {
	now := s.clock.Now()
	for _, job := range s.registry.Jobs() {
		s.runJob(ctx, job, now)
	}
}

func (s *Service) runJob(ctx context.Context, job Job, now time.Time) {
	ctx = s.logg.WithField(ctx, "job", job.Name())

	if !job.Due(now, s.lastRuns[job.Name()]) {
		s.metrics.IncSkipped(job.Name())
		return
	}

	key := s.locker.LockKey(job.Name())
	acquired, err := s.locker.SetNX(ctx, key, now.UTC().Format(time.RFC3339), s.cfg.LockTTL)
	if err != nil {
		s.logg.Error(ctx, "acquiring job lock", err)
		s.metrics.IncFailure(job.Name())
		return
	}
	if !acquired {
		// Another worker replica holds the lock.
		s.metrics.IncSkipped(job.Name())
		return
	}
	defer func() {
		if err := s.locker.Del(ctx, key); err != nil {
			s.logg.Error(ctx, "releasing job lock", err)
		}
	}()

	started := time.Now()
	err = job.Run(ctx, now)
	s.metrics.ObserveDuration(job.Name(), time.Since(started))
	s.lastRuns[job.Name()] = now

	if err != nil {
		s.logg.Error(ctx, "job run failed", err)
		s.metrics.IncFailure(job.Name())
		return
	}
	s.metrics.IncSuccess(job.Name())
}

package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/curbsideops/curbside-backend/internal/clock"
	"github.com/curbsideops/curbside-backend/pkg/config"
	"github.com/curbsideops/curbside-backend/pkg/logger"
	"github.com/curbsideops/curbside-backend/pkg/metrics"
)

type fakeLocker struct {
	denied   bool
	acquires int
	releases int
}

func (f *fakeLocker) SetNX(context.Context, string, any, time.Duration) (bool, error) {
	if f.denied {
		return false, nil
	}
	f.acquires++
	return true, nil
}

func (f *fakeLocker) Del(context.Context, ...string) error {
	f.releases++
	return nil
}

func (f *fakeLocker) LockKey(name string) string { return "curbside:lock:" + name }

type fakeJob struct {
	name string
	due  bool
	runs int
	err  error
}

func (f *fakeJob) Name() string              { return f.name }
func (f *fakeJob) Due(_, _ time.Time) bool   { return f.due }
func (f *fakeJob) Run(context.Context, time.Time) error {
	f.runs++
	return f.err
}

func newWorker(t *testing.T, locker *fakeLocker, jobs ...Job) *Service {
	t.Helper()

	registry := NewRegistry()
	registry.Register(jobs...)

	clk := clock.New(context.Background(), clock.Params{
		Config: config.ClockConfig{Timezone: "America/Denver"},
		Now:    func() time.Time { return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC) },
	})

	svc, err := New(Params{
		Registry: registry,
		Locker:   locker,
		Metrics:  metrics.NewCronJobMetrics(nil),
		Clock:    clk,
		Config:   config.CronConfig{Tick: time.Minute, LockTTL: time.Minute},
		Logger:   logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestTickRunsDueJobs(t *testing.T) {
	locker := &fakeLocker{}
	job := &fakeJob{name: "sweep", due: true}
	svc := newWorker(t, locker, job)

	svc.Tick(context.Background())
	if job.runs != 1 {
		t.Fatalf("expected one run, got %d", job.runs)
	}
	if locker.acquires != 1 || locker.releases != 1 {
		t.Fatalf("expected lock acquire+release, got %d/%d", locker.acquires, locker.releases)
	}
}

func TestTickSkipsClosedGate(t *testing.T) {
	locker := &fakeLocker{}
	job := &fakeJob{name: "sweep", due: false}
	svc := newWorker(t, locker, job)

	svc.Tick(context.Background())
	if job.runs != 0 {
		t.Fatalf("expected no runs, got %d", job.runs)
	}
	if locker.acquires != 0 {
		t.Fatal("expected no lock attempts for a closed gate")
	}
}

func TestTickSkipsWhenLockHeld(t *testing.T) {
	locker := &fakeLocker{denied: true}
	job := &fakeJob{name: "sweep", due: true}
	svc := newWorker(t, locker, job)

	svc.Tick(context.Background())
	if job.runs != 0 {
		t.Fatalf("expected no runs while lock held elsewhere, got %d", job.runs)
	}
}

func TestTickReleasesLockOnFailure(t *testing.T) {
	locker := &fakeLocker{}
	job := &fakeJob{name: "sweep", due: true, err: errors.New("boom")}
	svc := newWorker(t, locker, job)

	svc.Tick(context.Background())
	if locker.releases != 1 {
		t.Fatalf("expected lock released after failure, got %d", locker.releases)
	}
}

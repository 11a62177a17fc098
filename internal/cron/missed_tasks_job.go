package cron

import (
	"context"
	"time"

	"github.com/curbsideops/curbside-backend/pkg/logger"
)

const missedTasksJobName = "missed-tasks"

// Sweeper marks overdue tasks as missed.
type Sweeper interface {
	SweepMissed(ctx context.Context, now time.Time) (int, error)
}

// MissedTasksJob periodically sweeps live tasks whose window has closed.
type MissedTasksJob struct {
	sweeper Sweeper
	gate    Gate
	logg    *logger.Logger
}

// NewMissedTasksJob builds the sweep job with the given cadence.
func NewMissedTasksJob(sweeper Sweeper, interval time.Duration, logg *logger.Logger) *MissedTasksJob {
	return &MissedTasksJob{
		sweeper: sweeper,
		gate:    Every(interval),
		logg:    logg,
	}
}

func (j *MissedTasksJob) Name() string { return missedTasksJobName }

func (j *MissedTasksJob) Due(now, last time.Time) bool { return j.gate(now, last) }

func (j *MissedTasksJob) Run(ctx context.Context, now time.Time) error {
	swept, err := j.sweeper.SweepMissed(ctx, now)
	if swept > 0 {
		ctx := j.logg.WithField(ctx, "swept", swept)
		j.logg.Info(ctx, "missed tasks swept")
	}
	return err
}

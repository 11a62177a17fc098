package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/curbsideops/curbside-backend/internal/clock"
	"github.com/curbsideops/curbside-backend/pkg/db/models"
	"github.com/curbsideops/curbside-backend/pkg/logger"
)

const routinePickupsJobName = "routine-pickups"

// RoutineCreator materializes one routine request, reporting whether a new
// row was created.
type RoutineCreator interface {
	CreateRoutine(ctx context.Context, user models.User, date time.Time) (*models.PickupRequest, bool, error)
}

// RoutineUserLister returns users with routine pickups enabled.
type RoutineUserLister interface {
	ListRoutineUsers(ctx context.Context) ([]models.User, error)
}

// RoutinePickupsJob generates tomorrow's routine pickup requests once per
// day. Failures are isolated per user; reruns skip days already generated.
type RoutinePickupsJob struct {
	users   RoutineUserLister
	creator RoutineCreator
	clock   *clock.Service
	gate    Gate
	logg    *logger.Logger
}

// NewRoutinePickupsJob builds the generator gated to the given local hour.
func NewRoutinePickupsJob(users RoutineUserLister, creator RoutineCreator, clk *clock.Service, hour int, logg *logger.Logger) *RoutinePickupsJob {
	return &RoutinePickupsJob{
		users:   users,
		creator: creator,
		clock:   clk,
		gate:    DailyAt(hour, clk.Location()),
		logg:    logg,
	}
}

func (j *RoutinePickupsJob) Name() string { return routinePickupsJobName }

func (j *RoutinePickupsJob) Due(now, last time.Time) bool { return j.gate(now, last) }

func (j *RoutinePickupsJob) Run(ctx context.Context, now time.Time) error {
	tomorrow := j.clock.StartOfDay(now).AddDate(0, 0, 1)
	weekday := tomorrow.Weekday()

	users, err := j.users.ListRoutineUsers(ctx)
	if err != nil {
		return fmt.Errorf("list routine users: %w", err)
	}

	created := 0
	var errs error
	for _, user := range users {
		if !user.RoutineEnabled || !user.RoutineOnDay(weekday) {
			continue
		}
		_, ok, err := j.creator.CreateRoutine(ctx, user, tomorrow)
		if err != nil {
			ctx := j.logg.WithUserID(ctx, user.ID.String())
			j.logg.Error(ctx, "creating routine pickup", err)
			errs = multierr.Append(errs, fmt.Errorf("user %s: %w", user.ID, err))
			continue
		}
		if ok {
			created++
		}
	}

	if created > 0 {
		ctx := j.logg.WithField(ctx, "created", created)
		j.logg.Info(ctx, "routine pickups generated")
	}
	return errs
}

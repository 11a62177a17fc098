package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curbsideops/curbside-backend/internal/clock"
	"github.com/curbsideops/curbside-backend/pkg/config"
	"github.com/curbsideops/curbside-backend/pkg/db/models"
	"github.com/curbsideops/curbside-backend/pkg/logger"
)

type fakeSweeper struct {
	swept int
	calls int
}

func (f *fakeSweeper) SweepMissed(context.Context, time.Time) (int, error) {
	f.calls++
	return f.swept, nil
}

type fakeUserLister struct {
	users []models.User
}

func (f *fakeUserLister) ListRoutineUsers(context.Context) ([]models.User, error) {
	return f.users, nil
}

type fakeCreator struct {
	created []time.Time
	seen    map[string]bool
}

func (f *fakeCreator) CreateRoutine(_ context.Context, user models.User, date time.Time) (*models.PickupRequest, bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	key := user.ID.String() + date.Format("2006-01-02")
	if f.seen[key] {
		return nil, false, nil
	}
	f.seen[key] = true
	f.created = append(f.created, date)
	return &models.PickupRequest{}, true, nil
}

func testClockAt(t *testing.T, now time.Time) *clock.Service {
	t.Helper()
	return clock.New(context.Background(), clock.Params{
		Config: config.ClockConfig{Timezone: "America/Denver"},
		Now:    func() time.Time { return now },
	})
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel})
}

func TestMissedTasksJobDelegatesToSweeper(t *testing.T) {
	sweeper := &fakeSweeper{swept: 3}
	job := NewMissedTasksJob(sweeper, 10*time.Minute, testLogger())

	if err := job.Run(context.Background(), time.Now()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if sweeper.calls != 1 {
		t.Fatalf("expected one sweep call, got %d", sweeper.calls)
	}
}

func routineUser(days string) models.User {
	return models.User{
		ID:                 uuid.New(),
		PropertyID:         uuid.New(),
		UnitNumber:         "101",
		IsActive:           true,
		RoutineEnabled:     true,
		RoutineDaysOfWeek:  days,
		RoutineDefaultTime: "10:00",
	}
}

func TestRoutinePickupsJobGeneratesForRoutineDay(t *testing.T) {
	loc, _ := time.LoadLocation("America/Denver")
	// Sunday evening: tomorrow is Monday, a default routine day.
	now := time.Date(2026, 6, 14, 18, 0, 0, 0, loc)

	lister := &fakeUserLister{users: []models.User{routineUser("{1,3,5}")}}
	creator := &fakeCreator{}
	job := NewRoutinePickupsJob(lister, creator, testClockAt(t, now), 18, testLogger())

	if err := job.Run(context.Background(), now); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(creator.created) != 1 {
		t.Fatalf("expected one request, got %d", len(creator.created))
	}
	if creator.created[0].Weekday() != time.Monday {
		t.Fatalf("expected Monday, got %s", creator.created[0].Weekday())
	}
}

func TestRoutinePickupsJobSkipsOffDays(t *testing.T) {
	loc, _ := time.LoadLocation("America/Denver")
	// Monday evening: tomorrow is Tuesday, not in the Mon/Wed/Fri set.
	now := time.Date(2026, 6, 15, 18, 0, 0, 0, loc)

	lister := &fakeUserLister{users: []models.User{routineUser("{1,3,5}")}}
	creator := &fakeCreator{}
	job := NewRoutinePickupsJob(lister, creator, testClockAt(t, now), 18, testLogger())

	if err := job.Run(context.Background(), now); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(creator.created) != 0 {
		t.Fatalf("expected no requests for Tuesday, got %d", len(creator.created))
	}
}

func TestRoutinePickupsJobSkipsDisabledUsers(t *testing.T) {
	loc, _ := time.LoadLocation("America/Denver")
	now := time.Date(2026, 6, 14, 18, 0, 0, 0, loc)

	disabled := routineUser("{1,3,5}")
	disabled.RoutineEnabled = false
	lister := &fakeUserLister{users: []models.User{disabled}}
	creator := &fakeCreator{}
	job := NewRoutinePickupsJob(lister, creator, testClockAt(t, now), 18, testLogger())

	if err := job.Run(context.Background(), now); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(creator.created) != 0 {
		t.Fatalf("expected no requests for disabled user, got %d", len(creator.created))
	}
}

func TestRoutinePickupsJobRerunIsIdempotent(t *testing.T) {
	loc, _ := time.LoadLocation("America/Denver")
	now := time.Date(2026, 6, 14, 18, 0, 0, 0, loc)

	lister := &fakeUserLister{users: []models.User{routineUser("{1,3,5}")}}
	creator := &fakeCreator{}
	job := NewRoutinePickupsJob(lister, creator, testClockAt(t, now), 18, testLogger())

	if err := job.Run(context.Background(), now); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := job.Run(context.Background(), now); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(creator.created) != 1 {
		t.Fatalf("expected a single request across reruns, got %d", len(creator.created))
	}
}

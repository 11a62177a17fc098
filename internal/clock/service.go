// Package clock pins all schedule math to the single configured business
// timezone so day boundaries agree across the API, jobs, and queries.
package clock

import (
	"context"
	"time"

	"github.com/curbsideops/curbside-backend/pkg/config"
	"github.com/curbsideops/curbside-backend/pkg/logger"
)

// FallbackTimezone is used when the configured zone cannot be loaded.
const FallbackTimezone = "America/Denver"

// Service answers time questions in the business timezone. now is
// injectable for tests.
type Service struct {
	loc *time.Location
	now func() time.Time
}

// Params configures the clock service.
type Params struct {
	Config config.ClockConfig
	Logger *logger.Logger
	Now    func() time.Time
}

// New loads the configured timezone. An invalid zone logs a warning and
// falls back rather than failing startup.
func New(ctx context.Context, p Params) *Service {
	nowFn := p.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	name := p.Config.Timezone
	if name == "" {
		name = FallbackTimezone
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		if p.Logger != nil {
			ctx = p.Logger.WithField(ctx, "timezone", name)
			p.Logger.Warn(ctx, "invalid timezone configured, falling back")
		}
		loc, err = time.LoadLocation(FallbackTimezone)
		if err != nil {
			loc = time.UTC
		}
	}

	return &Service{loc: loc, now: nowFn}
}

// Location returns the business timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Now returns the current instant in the business timezone.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// Today returns midnight of the current calendar day.
func (s *Service) Today() time.Time {
	return s.StartOfDay(s.Now())
}

// StartOfDay truncates t to midnight in the business timezone.
func (s *Service) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// DayRange returns the half-open interval [start, end) covering t's
// calendar day.
func (s *Service) DayRange(t time.Time) (time.Time, time.Time) {
	start := s.StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// NextDay returns midnight of the day after t's calendar day.
func (s *Service) NextDay(t time.Time) time.Time {
	return s.StartOfDay(t).AddDate(0, 0, 1)
}

// Weekday returns t's weekday in the business timezone.
func (s *Service) Weekday(t time.Time) time.Weekday {
	return t.In(s.loc).Weekday()
}

package cron

import "time"

// Gate decides whether a job is due at now given its last run.
type Gate func(now, last time.Time) bool

// Every fires once the interval has elapsed since the last run. A zero
// last run fires immediately.
func Every(interval time.Duration) Gate {
	return func(now, last time.Time) bool {
		if last.IsZero() {
			return true
		}
		return now.Sub(last) >= interval
	}
}

// DailyAt fires once per local day, the first tick at or after the given
// hour.
func DailyAt(hour int, loc *time.Location) Gate {
	return func(now, last time.Time) bool {
		local := now.In(loc)
		gate := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
		if local.Before(gate) {
			return false
		}
		return last.Before(gate)
	}
}

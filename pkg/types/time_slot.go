package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeSlot is a pickup window within a day: a start expressed as minutes
// from midnight plus a duration. Parsed once at the edge so capacity math
// and scheduling never re-interpret display strings.
type TimeSlot struct {
	StartMinutes    int
	DurationMinutes int
}

const defaultSlotDurationMinutes = 60

// ParseTimeSlot accepts "10:00", "10:00 AM", "10:00-11:00" and
// "10:00 AM - 11:00 AM". A missing end time implies a one-hour slot.
func ParseTimeSlot(raw string) (TimeSlot, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return TimeSlot{}, fmt.Errorf("time slot: empty")
	}

	parts := strings.SplitN(raw, "-", 2)
	start, err := parseClock(parts[0])
	if err != nil {
		return TimeSlot{}, fmt.Errorf("time slot %q: %w", raw, err)
	}

	slot := TimeSlot{StartMinutes: start, DurationMinutes: defaultSlotDurationMinutes}
	if len(parts) == 2 {
		end, err := parseClock(parts[1])
		if err != nil {
			return TimeSlot{}, fmt.Errorf("time slot %q: %w", raw, err)
		}
		if end <= start {
			return TimeSlot{}, fmt.Errorf("time slot %q: end before start", raw)
		}
		slot.DurationMinutes = end - start
	}
	return slot, nil
}

// StartOn anchors the slot start to a calendar day in the given zone.
func (s TimeSlot) StartOn(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, s.StartMinutes/60, s.StartMinutes%60, 0, 0, loc)
}

// EndOn anchors the slot end to a calendar day in the given zone.
func (s TimeSlot) EndOn(day time.Time, loc *time.Location) time.Time {
	return s.StartOn(day, loc).Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// HourBucket is the hour-of-day the slot starts in, used by the per-hour
// capacity guard.
func (s TimeSlot) HourBucket() int {
	return s.StartMinutes / 60
}

// Display renders the slot in 12-hour form, e.g. "10:00 AM - 11:00 AM".
func (s TimeSlot) Display() string {
	return fmt.Sprintf("%s - %s", formatClock(s.StartMinutes), formatClock(s.StartMinutes+s.DurationMinutes))
}

func (s TimeSlot) IsZero() bool {
	return s.StartMinutes == 0 && s.DurationMinutes == 0
}

func parseClock(raw string) (int, error) {
	raw = strings.TrimSpace(strings.ToUpper(raw))

	meridiem := ""
	for _, suffix := range []string{"AM", "PM"} {
		if strings.HasSuffix(raw, suffix) {
			meridiem = suffix
			raw = strings.TrimSpace(strings.TrimSuffix(raw, suffix))
			break
		}
	}

	hh, mm, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, fmt.Errorf("expected HH:MM, got %q", raw)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(hh))
	if err != nil {
		return 0, fmt.Errorf("bad hour %q", hh)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(mm))
	if err != nil {
		return 0, fmt.Errorf("bad minute %q", mm)
	}
	if minute < 0 || minute > 59 {
		return 0, fmt.Errorf("minute %d out of range", minute)
	}

	switch meridiem {
	case "AM":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("hour %d out of range", hour)
		}
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("hour %d out of range", hour)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour < 0 || hour > 23 {
			return 0, fmt.Errorf("hour %d out of range", hour)
		}
	}
	return hour*60 + minute, nil
}

func formatClock(minutes int) string {
	minutes %= 24 * 60
	hour := minutes / 60
	minute := minutes % 60

	meridiem := "AM"
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour == 12:
		meridiem = "PM"
	case hour > 12:
		display = hour - 12
		meridiem = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, meridiem)
}

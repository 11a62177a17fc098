package types

import (
	"testing"
	"time"
)

func TestParseTimeSlot(t *testing.T) {
	cases := []struct {
		raw      string
		start    int
		duration int
	}{
		{"10:00", 600, 60},
		{"10:00 AM", 600, 60},
		{"10:00 AM - 11:30 AM", 600, 90},
		{"10:00-12:00", 600, 120},
		{"12:00 AM", 0, 60},
		{"12:30 PM", 750, 60},
		{"11:00 PM", 1380, 60},
	}
	for _, tc := range cases {
		slot, err := ParseTimeSlot(tc.raw)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.raw, err)
		}
		if slot.StartMinutes != tc.start || slot.DurationMinutes != tc.duration {
			t.Fatalf("%q: got %+v, want start=%d duration=%d", tc.raw, slot, tc.start, tc.duration)
		}
	}
}

func TestParseTimeSlotRejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "ten", "25:00", "10:61", "11:00-10:00", "13:00 PM"} {
		if _, err := ParseTimeSlot(raw); err == nil {
			t.Fatalf("%q: expected error", raw)
		}
	}
}

func TestTimeSlotAnchoring(t *testing.T) {
	loc, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	slot := TimeSlot{StartMinutes: 600, DurationMinutes: 90}
	day := time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)

	start := slot.StartOn(day, loc)
	if start.Hour() != 10 || start.Minute() != 0 {
		t.Fatalf("unexpected start %v", start)
	}
	if got := slot.EndOn(day, loc).Sub(start); got != 90*time.Minute {
		t.Fatalf("unexpected duration %v", got)
	}
}

func TestTimeSlotDisplayAndBucket(t *testing.T) {
	slot := TimeSlot{StartMinutes: 810, DurationMinutes: 60}
	if got := slot.Display(); got != "1:30 PM - 2:30 PM" {
		t.Fatalf("unexpected display %q", got)
	}
	if slot.HourBucket() != 13 {
		t.Fatalf("unexpected bucket %d", slot.HourBucket())
	}
}

package enums

import "fmt"

// AttendanceStatus describes how an employee's shift started.
type AttendanceStatus string

const (
	AttendanceStatusOnTime AttendanceStatus = "on_time"
	AttendanceStatusLate   AttendanceStatus = "late"
	AttendanceStatusAbsent AttendanceStatus = "absent"
)

var validAttendanceStatuses = []AttendanceStatus{
	AttendanceStatusOnTime,
	AttendanceStatusLate,
	AttendanceStatusAbsent,
}

// IsValid reports whether the value matches the canonical attendance status enum.
func (a AttendanceStatus) IsValid() bool {
	for _, candidate := range validAttendanceStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAttendanceStatus converts the raw string to AttendanceStatus.
func ParseAttendanceStatus(value string) (AttendanceStatus, error) {
	for _, candidate := range validAttendanceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid attendance status %q", value)
}

// DutyStatus is the employee's live on-shift state.
type DutyStatus string

const (
	DutyStatusOnDuty  DutyStatus = "on_duty"
	DutyStatusOffDuty DutyStatus = "off_duty"
	DutyStatusLate    DutyStatus = "late"
)

var validDutyStatuses = []DutyStatus{
	DutyStatusOnDuty,
	DutyStatusOffDuty,
	DutyStatusLate,
}

// IsValid reports whether the value matches the canonical duty status enum.
func (d DutyStatus) IsValid() bool {
	for _, candidate := range validDutyStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDutyStatus converts the raw string to DutyStatus.
func ParseDutyStatus(value string) (DutyStatus, error) {
	for _, candidate := range validDutyStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid duty status %q", value)
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/curbsideops/curbside-backend/pkg/enums"
)

// Attendance is one employee shift-day. A shift spans multiple property
// visits; ClockIn/ClockOut bracket the earliest check-in and latest
// check-out across them.
type Attendance struct {
	ID         uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EmployeeID uuid.UUID              `gorm:"column:employee_id;type:uuid;not null;uniqueIndex:idx_attendance_employee_day,priority:1"`
	ShiftDate  time.Time              `gorm:"column:shift_date;type:date;not null;uniqueIndex:idx_attendance_employee_day,priority:2"`
	ShiftStart *time.Time             `gorm:"column:shift_start;type:timestamptz"`
	ShiftEnd   *time.Time             `gorm:"column:shift_end;type:timestamptz"`
	Status     enums.AttendanceStatus `gorm:"type:text;not null"`
	ClockIn    *time.Time             `gorm:"column:clock_in;type:timestamptz"`
	ClockOut   *time.Time             `gorm:"column:clock_out;type:timestamptz"`
	TotalHours float64                `gorm:"column:total_hours;not null;default:0"`
	Visits     []PropertyVisit        `gorm:"foreignKey:AttendanceID"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// PropertyVisit is one geofenced check-in/check-out pair within a shift.
// At most one visit per property per attendance row.
type PropertyVisit struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AttendanceID uuid.UUID  `gorm:"column:attendance_id;type:uuid;not null;uniqueIndex:idx_visit_attendance_property,priority:1"`
	PropertyID   uuid.UUID  `gorm:"column:property_id;type:uuid;not null;uniqueIndex:idx_visit_attendance_property,priority:2"`
	CheckInAt    time.Time  `gorm:"column:check_in_at;type:timestamptz;not null"`
	CheckInLat   float64    `gorm:"column:check_in_lat;not null"`
	CheckInLng   float64    `gorm:"column:check_in_lng;not null"`
	CheckOutAt   *time.Time `gorm:"column:check_out_at;type:timestamptz"`
	CheckOutLat  *float64   `gorm:"column:check_out_lat"`
	CheckOutLng  *float64   `gorm:"column:check_out_lng"`
	HoursWorked  float64    `gorm:"column:hours_worked;not null;default:0"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Open reports whether the visit is still awaiting a check-out.
func (v PropertyVisit) Open() bool {
	return v.CheckOutAt == nil
}

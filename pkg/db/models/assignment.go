package models

import (
	"time"

	"github.com/google/uuid"
)

// EmployeePropertyAssignment is a standing assignment of an employee to a
// property. A nil ValidUntil means the assignment is permanent.
type EmployeePropertyAssignment struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EmployeeID uuid.UUID  `gorm:"column:employee_id;type:uuid;not null;index"`
	PropertyID uuid.UUID  `gorm:"column:property_id;type:uuid;not null;index"`
	IsPrimary  bool       `gorm:"column:is_primary;not null;default:false"`
	ValidFrom  time.Time  `gorm:"column:valid_from;type:timestamptz;not null"`
	ValidUntil *time.Time `gorm:"column:valid_until;type:timestamptz"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// ActiveAt reports whether the assignment covers the instant ts.
func (a EmployeePropertyAssignment) ActiveAt(ts time.Time) bool {
	if ts.Before(a.ValidFrom) {
		return false
	}
	return a.ValidUntil == nil || ts.Before(*a.ValidUntil)
}

// TemporaryAssignment is a short-lived assignment created by an admin,
// usually as a side effect of reassigning a task off-roster.
type TemporaryAssignment struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EmployeeID uuid.UUID `gorm:"column:employee_id;type:uuid;not null;index"`
	PropertyID uuid.UUID `gorm:"column:property_id;type:uuid;not null;index"`
	StartAt    time.Time `gorm:"column:start_at;type:timestamptz;not null"`
	EndAt      time.Time `gorm:"column:end_at;type:timestamptz;not null"`
	AssignedBy uuid.UUID `gorm:"column:assigned_by;type:uuid;not null"`
	Reason     string    `gorm:"column:reason;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Overlaps reports whether [from, to) intersects the assignment window.
func (t TemporaryAssignment) Overlaps(from, to time.Time) bool {
	return t.StartAt.Before(to) && from.Before(t.EndAt)
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/curbsideops/curbside-backend/pkg/enums"
)

// Employee is a field worker who services assigned properties.
// ShiftStartMinutes/ShiftEndMinutes express the contracted shift as
// minutes from midnight in the business timezone.
type Employee struct {
	ID                uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName         string           `gorm:"column:first_name;not null"`
	LastName          string           `gorm:"column:last_name;not null"`
	Email             string           `gorm:"type:text;not null;uniqueIndex"`
	Phone             *string          `gorm:"column:phone"`
	PasswordHash      string           `gorm:"column:password_hash;not null"`
	BadgeNumber       string           `gorm:"column:badge_number;not null;uniqueIndex"`
	DutyStatus        enums.DutyStatus `gorm:"column:duty_status;type:text;not null;default:'off_duty'"`
	ShiftStartMinutes int              `gorm:"column:shift_start_minutes;not null;default:540"`
	ShiftEndMinutes   int              `gorm:"column:shift_end_minutes;not null;default:1020"`
	IsActive          bool             `gorm:"column:is_active;not null;default:true"`
	LastLoginAt       *time.Time       `gorm:"column:last_login_at"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt         gorm.DeletedAt   `gorm:"column:deleted_at;index"`
}

// ShiftStartOn anchors the contracted shift start to a calendar day.
func (e Employee) ShiftStartOn(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, e.ShiftStartMinutes/60, e.ShiftStartMinutes%60, 0, 0, loc)
}

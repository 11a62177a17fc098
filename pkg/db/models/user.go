package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a property resident who can request pickups.
type User struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName     string         `gorm:"column:first_name;not null"`
	LastName      string         `gorm:"column:last_name;not null"`
	Email         string         `gorm:"type:text;not null;uniqueIndex"`
	Phone         *string        `gorm:"column:phone"`
	PasswordHash  string         `gorm:"column:password_hash;not null"`
	PropertyID    uuid.UUID      `gorm:"column:property_id;type:uuid;not null"`
	UnitNumber    string         `gorm:"column:unit_number;not null"`
	BuildingName  *string        `gorm:"column:building_name"`
	ApartmentName *string        `gorm:"column:apartment_name"`

	// Routine pickup preferences. DaysOfWeek uses time.Weekday numbering
	// (Sunday = 0) serialized as a Postgres int array literal.
	RoutineEnabled     bool   `gorm:"column:routine_enabled;not null;default:true"`
	RoutineDaysOfWeek  string `gorm:"column:routine_days_of_week;not null;default:'{1,3,5}'"`
	RoutineDefaultTime string `gorm:"column:routine_default_time;not null;default:'10:00'"`

	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt *time.Time     `gorm:"column:last_login_at"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// RoutineDays parses the stored day-of-week set.
func (u User) RoutineDays() []time.Weekday {
	raw := u.RoutineDaysOfWeek
	if len(raw) >= 2 && raw[0] == '{' && raw[len(raw)-1] == '}' {
		raw = raw[1 : len(raw)-1]
	}
	out := make([]time.Weekday, 0, 7)
	for _, part := range strings.Split(raw, ",") {
		switch strings.TrimSpace(part) {
		case "0", "1", "2", "3", "4", "5", "6":
			out = append(out, time.Weekday(strings.TrimSpace(part)[0]-'0'))
		}
	}
	return out
}

// RoutineOnDay reports whether the weekday is in the routine set.
func (u User) RoutineOnDay(day time.Weekday) bool {
	for _, d := range u.RoutineDays() {
		if d == day {
			return true
		}
	}
	return false
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/curbsideops/curbside-backend/pkg/enums"
)

// PickupRequest is the user-facing record a task fulfills. Routine rows are
// materialized by the generator; on_demand rows come straight from users.
type PickupRequest struct {
	ID                  uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID              *uuid.UUID         `gorm:"column:user_id;type:uuid"`
	PropertyID          uuid.UUID          `gorm:"column:property_id;type:uuid;not null"`
	UnitNumber          string             `gorm:"column:unit_number;not null"`
	BuildingName        *string            `gorm:"column:building_name"`
	ApartmentName       *string            `gorm:"column:apartment_name"`
	Type                enums.PickupType   `gorm:"type:text;not null"`
	Date                time.Time          `gorm:"column:date;type:date;not null"`
	TimeSlot            string             `gorm:"column:time_slot;not null"`
	SlotStartMinutes    int                `gorm:"column:slot_start_minutes;not null"`
	SlotDurationMinutes int                `gorm:"column:slot_duration_minutes;not null;default:60"`
	SpecialInstructions *string            `gorm:"column:special_instructions"`
	Status              enums.PickupStatus `gorm:"type:text;not null;default:'scheduled'"`
	TaskID              *uuid.UUID         `gorm:"column:task_id;type:uuid"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/curbsideops/curbside-backend/pkg/types"
)

// Property is a managed residential site. Location plus GeofenceRadiusM
// define the circle check-ins must fall inside.
type Property struct {
	ID              uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string               `gorm:"column:name;not null"`
	AddressLine     string               `gorm:"column:address_line;not null"`
	City            string               `gorm:"column:city;not null"`
	State           string               `gorm:"column:state;not null"`
	PostalCode      string               `gorm:"column:postal_code;not null"`
	Units           int                  `gorm:"column:units;not null;default:0"`
	ManagerName     *string              `gorm:"column:manager_name"`
	ManagerPhone    *string              `gorm:"column:manager_phone"`
	ManagerEmail    *string              `gorm:"column:manager_email"`
	Location        types.GeographyPoint `gorm:"column:location;type:geography(Point,4326);not null"`
	GeofenceRadiusM float64              `gorm:"column:geofence_radius_m;not null;default:100"`
	IsActive        bool                 `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

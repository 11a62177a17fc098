package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/curbsideops/curbside-backend/pkg/db/types"
	"github.com/curbsideops/curbside-backend/pkg/enums"
)

// Task is one unit of pickup work scheduled against a property window.
// Version backs the optimistic concurrency check on every lifecycle write.
type Task struct {
	ID                uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID         uuid.UUID         `gorm:"column:request_id;type:uuid;not null"`
	PropertyID        uuid.UUID         `gorm:"column:property_id;type:uuid;not null"`
	EmployeeID        *uuid.UUID        `gorm:"column:employee_id;type:uuid"`
	AssignedEmployees dbtypes.UUIDArray `gorm:"type:uuid[];column:assigned_employees;not null;default:ARRAY[]::uuid[]"`
	UnitNumber        string            `gorm:"column:unit_number;not null"`
	BuildingName      *string           `gorm:"column:building_name"`
	ApartmentName     *string           `gorm:"column:apartment_name"`
	ScheduledStart    time.Time         `gorm:"column:scheduled_start;type:timestamptz;not null"`
	ScheduledEnd      time.Time         `gorm:"column:scheduled_end;type:timestamptz;not null"`
	ActualStart       *time.Time        `gorm:"column:actual_start;type:timestamptz"`
	ActualEnd         *time.Time        `gorm:"column:actual_end;type:timestamptz"`
	Status            enums.TaskStatus  `gorm:"type:text;not null;default:'pending'"`
	DelayReason       *string           `gorm:"column:delay_reason"`
	IssueID           *uuid.UUID        `gorm:"column:issue_id;type:uuid"`
	Version           int               `gorm:"column:version;not null;default:0"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// AssignedTo reports whether the employee is in the task's assignment set.
func (t Task) AssignedTo(employeeID uuid.UUID) bool {
	if t.EmployeeID != nil && *t.EmployeeID == employeeID {
		return true
	}
	return t.AssignedEmployees.Contains(employeeID)
}

// WindowContains reports whether ts falls inside the scheduled window.
func (t Task) WindowContains(ts time.Time) bool {
	return !ts.Before(t.ScheduledStart) && !ts.After(t.ScheduledEnd)
}

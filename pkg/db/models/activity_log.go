package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/curbsideops/curbside-backend/pkg/enums"
)

// ActivityLog is an append-only record of task lifecycle events.
type ActivityLog struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Kind        enums.ActivityType `gorm:"column:kind;type:text;not null;index"`
	TaskID      *uuid.UUID         `gorm:"column:task_id;type:uuid;index"`
	EmployeeID  *uuid.UUID         `gorm:"column:employee_id;type:uuid;index"`
	IssueID     *uuid.UUID         `gorm:"column:issue_id;type:uuid"`
	UnitNumber  string             `gorm:"column:unit_number"`
	RequestType *enums.PickupType  `gorm:"column:request_type;type:text"`
	OccurredAt  time.Time          `gorm:"column:occurred_at;type:timestamptz;not null"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// IssueReport is a problem an employee raised against a task. The unique
// index enforces one report per (task, employee).
type IssueReport struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TaskID      uuid.UUID      `gorm:"column:task_id;type:uuid;not null;uniqueIndex:idx_issue_task_employee,priority:1"`
	EmployeeID  uuid.UUID      `gorm:"column:employee_id;type:uuid;not null;uniqueIndex:idx_issue_task_employee,priority:2"`
	IssueType   string         `gorm:"column:issue_type;not null"`
	Description string         `gorm:"column:description;not null"`
	MediaURLs   pq.StringArray `gorm:"column:media_urls;type:text[];not null;default:ARRAY[]::text[]"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}

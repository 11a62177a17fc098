package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/curbsideops/curbside-backend/pkg/enums"
)

// Notification stores in-app notification payloads per recipient.
type Notification struct {
	ID          uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID uuid.UUID              `gorm:"column:recipient_id;type:uuid;not null;index"`
	Role        enums.Role             `gorm:"column:role;type:text;not null"`
	Type        enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title       string                 `gorm:"type:text;not null"`
	Message     string                 `gorm:"type:text;not null"`
	ReadAt      *time.Time             `gorm:"column:read_at;type:timestamptz"`
	CreatedAt   time.Time              `gorm:"column:created_at;type:timestamptz;default:now()"`
}

// NotificationSetting holds per-recipient delivery toggles, one row per
// (recipient, role).
type NotificationSetting struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID         uuid.UUID  `gorm:"column:recipient_id;type:uuid;not null;uniqueIndex:idx_notification_setting_recipient_role,priority:1"`
	Role                enums.Role `gorm:"column:role;type:text;not null;uniqueIndex:idx_notification_setting_recipient_role,priority:2"`
	NewTaskAssigned     bool       `gorm:"column:new_task_assigned;not null;default:true"`
	IssueUpdates        bool       `gorm:"column:issue_updates;not null;default:true"`
	TaskStatus          bool       `gorm:"column:task_status;not null;default:true"`
	ClockInOutReminders bool       `gorm:"column:clock_in_out_reminders;not null;default:true"`
	AdminInstructions   bool       `gorm:"column:admin_instructions;not null;default:true"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Allows reports whether the setting permits the notification type.
// Unknown types default to allowed.
func (s NotificationSetting) Allows(t enums.NotificationType) bool {
	switch t {
	case enums.NotificationNewTaskAssigned:
		return s.NewTaskAssigned
	case enums.NotificationIssueUpdate:
		return s.IssueUpdates
	case enums.NotificationTaskStatus:
		return s.TaskStatus
	case enums.NotificationClockReminder:
		return s.ClockInOutReminders
	case enums.NotificationAdminInstructions:
		return s.AdminInstructions
	default:
		return true
	}
}

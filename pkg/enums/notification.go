package enums

import "fmt"

// NotificationType classifies in-app notifications for filtering and
// per-user setting checks.
type NotificationType string

const (
	NotificationNewTaskAssigned   NotificationType = "new_task_assigned"
	NotificationTaskStatus        NotificationType = "task_status"
	NotificationIssueUpdate       NotificationType = "issue_update"
	NotificationPickupConfirmed   NotificationType = "pickup_confirmed"
	NotificationPickupMissed      NotificationType = "pickup_missed"
	NotificationClockReminder     NotificationType = "clock_in_out_reminder"
	NotificationAdminInstructions NotificationType = "admin_instructions"
)

var validNotificationTypes = []NotificationType{
	NotificationNewTaskAssigned,
	NotificationTaskStatus,
	NotificationIssueUpdate,
	NotificationPickupConfirmed,
	NotificationPickupMissed,
	NotificationClockReminder,
	NotificationAdminInstructions,
}

// IsValid reports whether the value matches the canonical notification type enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts the raw string to NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

package enums

import "fmt"

// ActivityType is the canonical `kind` for activity log entries.
type ActivityType string

const (
	ActivityTaskStarted   ActivityType = "TASK_STARTED"
	ActivityTaskCompleted ActivityType = "TASK_COMPLETED"
	ActivityTaskMissed    ActivityType = "TASK_MISSED"
	ActivityTaskDelayed   ActivityType = "TASK_DELAYED"
	ActivityIssueReported ActivityType = "ISSUE_REPORTED"
	ActivityNewRequest    ActivityType = "NEW_REQUEST"
)

var validActivityTypes = []ActivityType{
	ActivityTaskStarted,
	ActivityTaskCompleted,
	ActivityTaskMissed,
	ActivityTaskDelayed,
	ActivityIssueReported,
	ActivityNewRequest,
}

// IsValid reports whether the value matches the canonical activity type enum.
func (a ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityType converts the raw string to ActivityType.
func ParseActivityType(value string) (ActivityType, error) {
	for _, candidate := range validActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}

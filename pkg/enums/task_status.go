package enums

import "fmt"

// TaskStatus describes the allowed values for the `status` column in tasks.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDelayed    TaskStatus = "delayed"
	TaskStatusMissed     TaskStatus = "missed"
	TaskStatusCompleted  TaskStatus = "completed"

	// TaskStatusScheduled is a legacy alias for pending still present in
	// rows written before the status model was consolidated.
	TaskStatusScheduled TaskStatus = "scheduled"
)

var validTaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusDelayed,
	TaskStatusMissed,
	TaskStatusCompleted,
	TaskStatusScheduled,
}

// ActiveTaskStatuses are the states the missed-task sweep considers live.
var ActiveTaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusScheduled,
}

// IsValid reports whether the value matches the canonical task status enum.
func (t TaskStatus) IsValid() bool {
	for _, candidate := range validTaskStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further lifecycle transition is allowed.
// Delayed tasks already carry an actual end and are resolved through a
// fresh task, not a transition.
func (t TaskStatus) IsTerminal() bool {
	return t == TaskStatusCompleted || t == TaskStatusMissed || t == TaskStatusDelayed
}

// IsStartable reports whether the task may move to in_progress.
func (t TaskStatus) IsStartable() bool {
	return t == TaskStatusPending || t == TaskStatusScheduled
}

// ParseTaskStatus converts the raw string to TaskStatus.
func ParseTaskStatus(value string) (TaskStatus, error) {
	for _, candidate := range validTaskStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task status %q", value)
}

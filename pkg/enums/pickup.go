package enums

import "fmt"

// PickupType distinguishes generated routine pickups from user requests.
type PickupType string

const (
	PickupTypeRoutine  PickupType = "routine"
	PickupTypeOnDemand PickupType = "on_demand"
)

var validPickupTypes = []PickupType{
	PickupTypeRoutine,
	PickupTypeOnDemand,
}

// IsValid reports whether the value matches the canonical pickup type enum.
func (p PickupType) IsValid() bool {
	for _, candidate := range validPickupTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePickupType converts the raw string to PickupType.
func ParsePickupType(value string) (PickupType, error) {
	for _, candidate := range validPickupTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pickup type %q", value)
}

// PickupStatus describes the allowed values for the `status` column in
// pickup_requests.
type PickupStatus string

const (
	PickupStatusScheduled PickupStatus = "scheduled"
	PickupStatusCompleted PickupStatus = "completed"
	PickupStatusMissed    PickupStatus = "missed"
	PickupStatusDelayed   PickupStatus = "delayed"
)

var validPickupStatuses = []PickupStatus{
	PickupStatusScheduled,
	PickupStatusCompleted,
	PickupStatusMissed,
	PickupStatusDelayed,
}

// IsValid reports whether the value matches the canonical pickup status enum.
func (p PickupStatus) IsValid() bool {
	for _, candidate := range validPickupStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePickupStatus converts the raw string to PickupStatus.
func ParsePickupStatus(value string) (PickupStatus, error) {
	for _, candidate := range validPickupStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pickup status %q", value)
}

package enums

import "fmt"

// ActivityType labels entries in a user's activity feed.
type ActivityType string

const (
	ActivityTypeLogin         ActivityType = "login"
	ActivityTypePlanCreated   ActivityType = "plan_created"
	ActivityTypePatientAdded  ActivityType = "patient_added"
	ActivityTypeTaskCompleted ActivityType = "task_completed"
)

var validActivityTypes = []ActivityType{
	ActivityTypeLogin,
	ActivityTypePlanCreated,
	ActivityTypePatientAdded,
	ActivityTypeTaskCompleted,
}

// IsValid reports whether the value is a known ActivityType.
func (a ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityType converts raw input into an ActivityType.
func ParseActivityType(value string) (ActivityType, error) {
	for _, candidate := range validActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}

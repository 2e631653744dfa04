package enums

import "fmt"

// PlanType describes the cadence a visit plan was drafted for.
type PlanType string

const (
	PlanTypeDaily   PlanType = "daily"
	PlanTypeWeekly  PlanType = "weekly"
	PlanTypeMonthly PlanType = "monthly"
)

var validPlanTypes = []PlanType{
	PlanTypeDaily,
	PlanTypeWeekly,
	PlanTypeMonthly,
}

func (p PlanType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PlanType.
func (p PlanType) IsValid() bool {
	for _, candidate := range validPlanTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlanType converts raw input into a PlanType.
func ParsePlanType(value string) (PlanType, error) {
	for _, candidate := range validPlanTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan type %q", value)
}

// VisitStatus tracks a single location visit inside a plan.
type VisitStatus string

const (
	VisitStatusIncomplete VisitStatus = "incomplete"
	VisitStatusCompleted  VisitStatus = "completed"
)

// IsValid reports whether the value is a known VisitStatus.
func (s VisitStatus) IsValid() bool {
	return s == VisitStatusIncomplete || s == VisitStatusCompleted
}

// TaskStatus tracks a plan task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// IsValid reports whether the value is a known TaskStatus.
func (s TaskStatus) IsValid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

// ParseTaskStatus converts raw input into a TaskStatus.
func ParseTaskStatus(value string) (TaskStatus, error) {
	status := TaskStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid task status %q", value)
	}
	return status, nil
}

// NoteRole tags a plan note with the list it belongs to.
type NoteRole string

const (
	// NoteRoleLocation is the plan owner's own note about a stop.
	NoteRoleLocation NoteRole = "location"
	NoteRoleGM       NoteRole = "GM"
	NoteRoleLM       NoteRole = "LM"
	NoteRoleHR       NoteRole = "HR"
	NoteRoleDM       NoteRole = "DM"
)

// ManagerNoteRole maps a user role onto its manager note list.
// Roles without a note list report false.
func ManagerNoteRole(role UserRole) (NoteRole, bool) {
	switch role {
	case UserRoleGeneralManager:
		return NoteRoleGM, true
	case UserRoleLineManager:
		return NoteRoleLM, true
	case UserRoleHR:
		return NoteRoleHR, true
	case UserRoleDistrictManager:
		return NoteRoleDM, true
	default:
		return "", false
	}
}

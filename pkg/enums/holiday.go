package enums

import "fmt"

// HolidayStatus is the lifecycle state of a holiday request.
type HolidayStatus string

const (
	HolidayStatusPending  HolidayStatus = "pending"
	HolidayStatusApproved HolidayStatus = "approved"
	HolidayStatusRejected HolidayStatus = "rejected"
)

// IsValid reports whether the value is a known HolidayStatus.
func (s HolidayStatus) IsValid() bool {
	switch s {
	case HolidayStatusPending, HolidayStatusApproved, HolidayStatusRejected:
		return true
	}
	return false
}

// IsFinal reports whether no further transitions are allowed.
func (s HolidayStatus) IsFinal() bool {
	return s == HolidayStatusApproved || s == HolidayStatusRejected
}

// HolidayDecision is a single approver's vote.
type HolidayDecision string

const (
	HolidayDecisionApproved HolidayDecision = "approved"
	HolidayDecisionRejected HolidayDecision = "rejected"
)

// ParseHolidayDecision converts raw input into a HolidayDecision.
func ParseHolidayDecision(value string) (HolidayDecision, error) {
	switch HolidayDecision(value) {
	case HolidayDecisionApproved, HolidayDecisionRejected:
		return HolidayDecision(value), nil
	}
	return "", fmt.Errorf("invalid holiday decision %q", value)
}

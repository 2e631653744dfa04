package enums

import "fmt"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationTypePlanUpdate      NotificationType = "plan_update"
	NotificationTypeMessage         NotificationType = "message"
	NotificationTypeHolidayRequest  NotificationType = "holiday_request"
	NotificationTypeHolidayDecision NotificationType = "holiday_decision"
)

var validNotificationTypes = []NotificationType{
	NotificationTypePlanUpdate,
	NotificationTypeMessage,
	NotificationTypeHolidayRequest,
	NotificationTypeHolidayDecision,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationPriority orders notifications in the client inbox.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityMedium NotificationPriority = "medium"
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityUrgent NotificationPriority = "urgent"
)

// IsValid reports whether the value is a known priority.
func (p NotificationPriority) IsValid() bool {
	switch p {
	case NotificationPriorityLow, NotificationPriorityMedium, NotificationPriorityHigh, NotificationPriorityUrgent:
		return true
	}
	return false
}

// NotificationStatus is the read state of a notification.
type NotificationStatus string

const (
	NotificationStatusUnread   NotificationStatus = "unread"
	NotificationStatusRead     NotificationStatus = "read"
	NotificationStatusArchived NotificationStatus = "archived"
)

// ParseNotificationStatus converts raw strings into NotificationStatus.
func ParseNotificationStatus(value string) (NotificationStatus, error) {
	switch NotificationStatus(value) {
	case NotificationStatusUnread, NotificationStatusRead, NotificationStatusArchived:
		return NotificationStatus(value), nil
	}
	return "", fmt.Errorf("invalid notification status %q", value)
}

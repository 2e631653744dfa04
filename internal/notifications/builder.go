package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	dbtypes "github.com/medhealth/fieldforce-backend/pkg/db/types"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
)

// Draft describes a notification before it is persisted.
type Draft struct {
	RecipientID uuid.UUID
	SenderID    *uuid.UUID
	Type        enums.NotificationType
	Title       string
	Message     string
	Priority    enums.NotificationPriority
	ActionURL   string
	Metadata    map[string]any
	ExpiresAt   *time.Time
}

// Build turns a draft into an unread notification row with a fresh id.
func Build(d Draft) *models.Notification {
	priority := d.Priority
	if !priority.IsValid() {
		priority = enums.NotificationPriorityMedium
	}
	n := &models.Notification{
		ID:          uuid.New(),
		RecipientID: d.RecipientID,
		SenderID:    d.SenderID,
		Type:        d.Type,
		Title:       d.Title,
		Message:     d.Message,
		Priority:    priority,
		Status:      enums.NotificationStatusUnread,
		ExpiresAt:   d.ExpiresAt,
	}
	if d.ActionURL != "" {
		url := d.ActionURL
		n.ActionURL = &url
	}
	if len(d.Metadata) > 0 {
		n.Metadata = dbtypes.JSONMap(d.Metadata)
	}
	return n
}

package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/medhealth/fieldforce-backend/pkg/db/types"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
)

// Notification is an in-app message addressed to a single user.
type Notification struct {
	ID          uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	RecipientID uuid.UUID                  `gorm:"column:recipient_id;type:uuid;not null;index"`
	SenderID    *uuid.UUID                 `gorm:"column:sender_id;type:uuid"`
	Type        enums.NotificationType     `gorm:"column:type;type:text;not null"`
	Title       string                     `gorm:"column:title;not null"`
	Message     string                     `gorm:"column:message;not null"`
	Priority    enums.NotificationPriority `gorm:"column:priority;type:text;not null"`
	Status      enums.NotificationStatus   `gorm:"column:status;type:text;not null"`
	ActionURL   *string                    `gorm:"column:action_url"`
	Metadata    dbtypes.JSONMap            `gorm:"column:metadata;type:jsonb"`
	ExpiresAt   *time.Time                 `gorm:"column:expires_at"`
	ReadAt      *time.Time                 `gorm:"column:read_at"`
	CreatedAt   time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

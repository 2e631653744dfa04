package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/pkg/enums"
)

// Activity is an entry in a user's recent-activity feed.
type Activity struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	Type        enums.ActivityType `gorm:"column:type;type:text;not null"`
	Description string             `gorm:"column:description;not null"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/pkg/enums"
	"github.com/medhealth/fieldforce-backend/pkg/types"
)

// User represents the canonical identity entity, including its reporting lines.
type User struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name              string            `gorm:"column:name;not null"`
	Email             string            `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash      string            `gorm:"column:password_hash;not null"`
	Role              enums.UserRole    `gorm:"column:role;type:text;not null"`
	LineManagerID     *uuid.UUID        `gorm:"column:lm_id;type:uuid;index"`
	DistrictManagerID *uuid.UUID        `gorm:"column:dm_id;type:uuid;index"`
	AreaManagerID     *uuid.UUID        `gorm:"column:area_id;type:uuid;index"`
	Governorate       *string           `gorm:"column:governorate"`
	Phone             *string           `gorm:"column:phone"`
	Address           *string           `gorm:"column:address"`
	Avatar            *string           `gorm:"column:avatar"`
	IsActive          bool              `gorm:"column:is_active;not null"`
	HolidaysTaken     int               `gorm:"column:holidays_taken;not null"`
	KPI               int               `gorm:"column:kpi;not null"`
	Preferences       types.Preferences `gorm:"column:preferences;type:jsonb"`
	LastLoginAt       *time.Time        `gorm:"column:last_login_at"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// ManagerIDs returns the non-nil reporting-line references.
func (u User) ManagerIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, 3)
	for _, ref := range []*uuid.UUID{u.LineManagerID, u.DistrictManagerID, u.AreaManagerID} {
		if ref != nil {
			out = append(out, *ref)
		}
	}
	return out
}

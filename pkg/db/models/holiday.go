package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/pkg/enums"
)

// HolidayRequest is a leave request awaiting or past its approvals.
type HolidayRequest struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	StartDate time.Time           `gorm:"column:start_date;not null"`
	EndDate   time.Time           `gorm:"column:end_date;not null"`
	Days      int                 `gorm:"column:days;not null"`
	Reason    string              `gorm:"column:reason;not null"`
	Status    enums.HolidayStatus `gorm:"column:status;type:text;not null"`
	DecidedAt *time.Time          `gorm:"column:decided_at"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Approvals []HolidayApproval `gorm:"foreignKey:HolidayID"`
}

// HolidayApproval records one approver's decision. An approver votes once.
type HolidayApproval struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	HolidayID  uuid.UUID             `gorm:"column:holiday_id;type:uuid;not null;uniqueIndex:ux_holiday_approvals_holiday_approver"`
	ApproverID uuid.UUID             `gorm:"column:approver_id;type:uuid;not null;uniqueIndex:ux_holiday_approvals_holiday_approver"`
	Decision   enums.HolidayDecision `gorm:"column:decision;type:text;not null"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
}

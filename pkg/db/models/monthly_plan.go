package models

import (
	"time"

	"github.com/google/uuid"
)

// MonthlyPlan groups the visit plans of a date range.
type MonthlyPlan struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	StartDate time.Time `gorm:"column:start_date;not null"`
	EndDate   time.Time `gorm:"column:end_date;not null"`
	Notes     *string   `gorm:"column:notes"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Entries []MonthlyPlanEntry `gorm:"foreignKey:MonthlyPlanID"`
}

// MonthlyPlanEntry keeps the ordered visit plan ids of a monthly plan.
type MonthlyPlanEntry struct {
	MonthlyPlanID uuid.UUID `gorm:"column:monthly_plan_id;type:uuid;primaryKey"`
	PlanID        uuid.UUID `gorm:"column:plan_id;type:uuid;primaryKey;index"`
	Position      int       `gorm:"column:position;not null"`
}

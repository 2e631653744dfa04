package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/pkg/enums"
)

// VisitPlan is one representative's set of location visits for a day.
type VisitPlan struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index"`
	Type      enums.PlanType `gorm:"column:type;type:text;not null"`
	Region    string         `gorm:"column:region;not null"`
	VisitDate time.Time      `gorm:"column:visit_date;not null;index"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`

	Locations []PlanLocation `gorm:"foreignKey:PlanID"`
	Tasks     []PlanTask     `gorm:"foreignKey:PlanID"`
	Notes     []PlanNote     `gorm:"foreignKey:PlanID"`
}

// PlanLocation is an ordered visit entry inside a plan.
type PlanLocation struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	PlanID         uuid.UUID         `gorm:"column:plan_id;type:uuid;not null;index"`
	LocationID     uuid.UUID         `gorm:"column:location_id;type:uuid;not null;index"`
	Position       int               `gorm:"column:position;not null"`
	Status         enums.VisitStatus `gorm:"column:status;type:text;not null"`
	StartLatitude  *float64          `gorm:"column:start_latitude"`
	StartLongitude *float64          `gorm:"column:start_longitude"`
	StartedAt      *time.Time        `gorm:"column:started_at"`
	EndLatitude    *float64          `gorm:"column:end_latitude"`
	EndLongitude   *float64          `gorm:"column:end_longitude"`
	CompletedAt    *time.Time        `gorm:"column:completed_at"`

	Location *Location `gorm:"foreignKey:LocationID"`
}

// PlanTask is a free-text checklist item on a plan.
type PlanTask struct {
	ID       uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	PlanID   uuid.UUID        `gorm:"column:plan_id;type:uuid;not null;index"`
	Position int              `gorm:"column:position;not null"`
	Title    string           `gorm:"column:title;not null"`
	Status   enums.TaskStatus `gorm:"column:status;type:text;not null"`
}

// PlanNote holds both the owner's location notes and the manager notes,
// distinguished by Role.
type PlanNote struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	PlanID     uuid.UUID      `gorm:"column:plan_id;type:uuid;not null;index"`
	LocationID *uuid.UUID     `gorm:"column:location_id;type:uuid"`
	AuthorID   *uuid.UUID     `gorm:"column:author_id;type:uuid"`
	Role       enums.NoteRole `gorm:"column:role;type:text;not null"`
	Body       string         `gorm:"column:body;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
}

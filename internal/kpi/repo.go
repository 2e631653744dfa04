package kpi

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
)

// PlanCounts is the visit tally of one plan.
type PlanCounts struct {
	PlanID    uuid.UUID `gorm:"column:plan_id"`
	UserID    uuid.UUID `gorm:"column:user_id"`
	VisitDate time.Time `gorm:"column:visit_date"`
	Total     int       `gorm:"column:total"`
	Completed int       `gorm:"column:completed"`
}

// Repository reads the visit aggregates scoring is based on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	PlanCounts(ctx context.Context, from, to time.Time, userID *uuid.UUID) ([]PlanCounts, error)
	CompletedVisits(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.PlanLocation, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a KPI repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// PlanCounts returns per-plan entry totals for plans visited in [from, to),
// optionally limited to one owner.
func (r *repository) PlanCounts(ctx context.Context, from, to time.Time, userID *uuid.UUID) ([]PlanCounts, error) {
	query := r.db.WithContext(ctx).
		Table("visit_plans AS vp").
		Select(`vp.id AS plan_id, vp.user_id AS user_id, vp.visit_date AS visit_date,
			COUNT(pl.id) AS total,
			COALESCE(SUM(CASE WHEN pl.status = ? THEN 1 ELSE 0 END), 0) AS completed`, enums.VisitStatusCompleted).
		Joins("LEFT JOIN plan_locations AS pl ON pl.plan_id = vp.id").
		Where("vp.visit_date >= ? AND vp.visit_date < ?", from, to)
	if userID != nil {
		query = query.Where("vp.user_id = ?", *userID)
	}
	var rows []PlanCounts
	err := query.Group("vp.id, vp.user_id, vp.visit_date").Scan(&rows).Error
	return rows, err
}

func (r *repository) CompletedVisits(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.PlanLocation, error) {
	var rows []models.PlanLocation
	err := r.db.WithContext(ctx).
		Joins("JOIN visit_plans AS vp ON vp.id = plan_locations.plan_id").
		Where("vp.user_id = ? AND vp.visit_date >= ? AND vp.visit_date < ?", userID, from, to).
		Where("plan_locations.status = ?", enums.VisitStatusCompleted).
		Preload("Location").
		Order("plan_locations.completed_at ASC").
		Find(&rows).Error
	return rows, err
}

// Tally sums plan counts per owner.
type Tally struct {
	Total     int
	Completed int
}

// ByUser folds per-plan counts into per-owner tallies.
func ByUser(rows []PlanCounts) map[uuid.UUID]Tally {
	out := make(map[uuid.UUID]Tally)
	for _, row := range rows {
		t := out[row.UserID]
		t.Total += row.Total
		t.Completed += row.Completed
		out[row.UserID] = t
	}
	return out
}

// ByUserMonth folds per-plan counts into per-owner, per-month tallies.
func ByUserMonth(rows []PlanCounts) map[uuid.UUID]map[int]Tally {
	out := make(map[uuid.UUID]map[int]Tally)
	for _, row := range rows {
		months, ok := out[row.UserID]
		if !ok {
			months = make(map[int]Tally)
			out[row.UserID] = months
		}
		month := int(row.VisitDate.UTC().Month())
		t := months[month]
		t.Total += row.Total
		t.Completed += row.Completed
		months[month] = t
	}
	return out
}

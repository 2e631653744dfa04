package monthlyplans

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/pkg/db/models"
)

// Repository persists monthly plans and their ordered plan membership.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, plan *models.MonthlyPlan) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.MonthlyPlan, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.MonthlyPlan, error)
	FindCovering(ctx context.Context, ownerID uuid.UUID, day time.Time) (*models.MonthlyPlan, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a monthly plans repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, plan *models.MonthlyPlan) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("Entries").Create(plan).Error; err != nil {
		return err
	}
	if len(plan.Entries) == 0 {
		return nil
	}
	for i := range plan.Entries {
		plan.Entries[i].MonthlyPlanID = plan.ID
	}
	return db.Create(&plan.Entries).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MonthlyPlan, error) {
	var plan models.MonthlyPlan
	if err := r.withEntries(ctx).First(&plan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.MonthlyPlan, error) {
	var rows []models.MonthlyPlan
	err := r.withEntries(ctx).
		Where("user_id = ?", ownerID).
		Order("start_date DESC").Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// FindCovering returns the newest monthly plan whose range contains day.
func (r *repository) FindCovering(ctx context.Context, ownerID uuid.UUID, day time.Time) (*models.MonthlyPlan, error) {
	var plan models.MonthlyPlan
	err := r.withEntries(ctx).
		Where("user_id = ? AND start_date <= ? AND end_date >= ?", ownerID, day, day).
		Order("start_date DESC").Order("created_at DESC").
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("monthly_plan_id = ?", id).Delete(&models.MonthlyPlanEntry{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&models.MonthlyPlan{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) withEntries(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Entries", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") })
}

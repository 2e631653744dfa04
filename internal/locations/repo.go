package locations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/pkg/db/models"
)

// Repository persists locations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, location *models.Location) error
	CreateBatch(ctx context.Context, rows []models.Location) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Location, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Location, error)
	Save(ctx context.Context, location *models.Location) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountPlanReferences(ctx context.Context, id uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a locations repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, location *models.Location) error {
	return r.db.WithContext(ctx).Create(location).Error
}

func (r *repository) CreateBatch(ctx context.Context, rows []models.Location) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).First(&location, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Location, error) {
	if len(ids) == 0 {
		return []models.Location{}, nil
	}
	var rows []models.Location
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Location, error) {
	var rows []models.Location
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Save(ctx context.Context, location *models.Location) error {
	return r.db.WithContext(ctx).Save(location).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Location{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CountPlanReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PlanLocation{}).
		Where("location_id = ?", id).
		Count(&count).Error
	return count, err
}

package activity

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/pagination"
)

// Repository persists the per-user activity feed.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.Activity) error
	Prune(ctx context.Context, userID uuid.UUID, keep int) (int64, error)
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Activity, error)
	List(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Activity, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an activity repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.Activity) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Prune deletes everything but the newest keep rows of userID.
func (r *repository) Prune(ctx context.Context, userID uuid.UUID, keep int) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`DELETE FROM activities
		 WHERE user_id = ?
		   AND id NOT IN (
		     SELECT id FROM activities
		     WHERE user_id = ?
		     ORDER BY created_at DESC, id DESC
		     LIMIT ?
		   )`,
		userID, userID, keep,
	)
	return result.RowsAffected, result.Error
}

func (r *repository) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Activity, error) {
	var rows []models.Activity
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) List(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Activity, *pagination.Cursor, error) {
	var rows []models.Activity
	query := pagination.Keyset(r.db.WithContext(ctx).Where("user_id = ?", userID), cursor, limit)
	if err := query.Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(rows, limit, func(a models.Activity) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	})
	return page, next, nil
}

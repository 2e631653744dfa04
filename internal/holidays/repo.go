package holidays

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
)

// Repository persists holiday requests and approval votes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.HolidayRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.HolidayRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.HolidayRequest, error)
	TouchPending(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)
	AddApproval(ctx context.Context, approval *models.HolidayApproval) error
	CountApprovals(ctx context.Context, holidayID uuid.UUID) (int64, error)
	FinalizePending(ctx context.Context, id uuid.UUID, status enums.HolidayStatus, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a holidays repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.HolidayRequest) error {
	return r.db.WithContext(ctx).Omit("Approvals").Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.HolidayRequest, error) {
	var request models.HolidayRequest
	err := r.db.WithContext(ctx).
		Preload("Approvals", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC").Order("id ASC") }).
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.HolidayRequest, error) {
	var rows []models.HolidayRequest
	err := r.db.WithContext(ctx).
		Preload("Approvals", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC").Order("id ASC") }).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// TouchPending bumps updated_at on a pending request. Postgres holds the row
// lock for the rest of the transaction, serializing concurrent deciders.
func (r *repository) TouchPending(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.HolidayRequest{}).
		Where("id = ? AND status = ?", id, enums.HolidayStatusPending).
		Update("updated_at", now)
	return res.RowsAffected, res.Error
}

func (r *repository) AddApproval(ctx context.Context, approval *models.HolidayApproval) error {
	return r.db.WithContext(ctx).Create(approval).Error
}

func (r *repository) CountApprovals(ctx context.Context, holidayID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.HolidayApproval{}).
		Where("holiday_id = ? AND decision = ?", holidayID, enums.HolidayDecisionApproved).
		Count(&count).Error
	return count, err
}

// FinalizePending moves a pending request to status. Zero rows means another
// decider finalized it first.
func (r *repository) FinalizePending(ctx context.Context, id uuid.UUID, status enums.HolidayStatus, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.HolidayRequest{}).
		Where("id = ? AND status = ?", id, enums.HolidayStatusPending).
		Updates(map[string]any{"status": status, "decided_at": now, "updated_at": now})
	return res.RowsAffected, res.Error
}

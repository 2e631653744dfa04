package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
	"github.com/medhealth/fieldforce-backend/pkg/pagination"
)

// Repository exposes persistence helpers for notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error)
	Counts(ctx context.Context, recipientID uuid.UUID, now time.Time) (Counts, error)
	SetStatus(ctx context.Context, recipientID, notificationID uuid.UUID, status enums.NotificationStatus, now time.Time) (notificationMarkResult, error)
	MarkAllRead(ctx context.Context, recipientID uuid.UUID, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listNotificationsParams struct {
	RecipientID uuid.UUID
	Limit       int
	Cursor      *pagination.Cursor
	Status      enums.NotificationStatus
	Now         time.Time
}

type notificationMarkResult struct {
	Updated bool
	Found   bool
}

// Counts summarises a recipient's live notifications.
type Counts struct {
	Total  int64 `json:"total"`
	Unread int64 `json:"unread"`
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repository) live(ctx context.Context, recipientID uuid.UUID, now time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ?", recipientID).
		Where("expires_at IS NULL OR expires_at > ?", now)
}

// List returns one page newest first, excluding archived rows unless the
// caller filters on a status explicitly.
func (r *repository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	query := r.live(ctx, params.RecipientID, params.Now)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	} else {
		query = query.Where("status <> ?", enums.NotificationStatusArchived)
	}

	var rows []models.Notification
	if err := pagination.Keyset(query, params.Cursor, params.Limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(rows, params.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	return page, next, nil
}

func (r *repository) Counts(ctx context.Context, recipientID uuid.UUID, now time.Time) (Counts, error) {
	var row struct {
		Total  int64
		Unread int64
	}
	err := r.live(ctx, recipientID, now).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS unread", enums.NotificationStatusUnread).
		Scan(&row).Error
	if err != nil {
		return Counts{}, err
	}
	return Counts{Total: row.Total, Unread: row.Unread}, nil
}

func (r *repository) SetStatus(ctx context.Context, recipientID, notificationID uuid.UUID, status enums.NotificationStatus, now time.Time) (notificationMarkResult, error) {
	updates := map[string]any{"status": status}
	if status == enums.NotificationStatusRead {
		updates["read_at"] = now
	}
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND status <> ?", notificationID, recipientID, status).
		UpdateColumns(updates)
	if result.Error != nil {
		return notificationMarkResult{}, result.Error
	}

	mark := notificationMarkResult{Updated: result.RowsAffected > 0}
	if result.RowsAffected > 0 {
		mark.Found = true
		return mark, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Count(&count).Error; err != nil {
		return notificationMarkResult{}, err
	}
	mark.Found = count > 0
	return mark, nil
}

func (r *repository) MarkAllRead(ctx context.Context, recipientID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND status = ?", recipientID, enums.NotificationStatusUnread).
		UpdateColumns(map[string]any{"status": enums.NotificationStatusRead, "read_at": now})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

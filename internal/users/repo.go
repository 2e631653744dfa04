package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
)

// Repository exposes user-related persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter ListFilter) ([]models.User, error)
	FirstByRole(ctx context.Context, role enums.UserRole) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	AddHolidaysTaken(ctx context.Context, id uuid.UUID, days int) error
	SetKPI(ctx context.Context, id uuid.UUID, kpi int) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountReports(ctx context.Context, id uuid.UUID) (int64, error)
	CountPlans(ctx context.Context, id uuid.UUID) (int64, error)
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Role         enums.UserRole
	ExcludeRoles []enums.UserRole
	IDs          []uuid.UUID
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByEmail retrieves the user matching the provided (normalized) email.
func (r *repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.User, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if len(filter.ExcludeRoles) > 0 {
		query = query.Where("role NOT IN ?", filter.ExcludeRoles)
	}
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return []models.User{}, nil
		}
		query = query.Where("id IN ?", filter.IDs)
	}

	var rows []models.User
	if err := query.Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FirstByRole returns the earliest-created user holding role.
func (r *repository) FirstByRole(ctx context.Context, role enums.UserRole) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at ASC, id ASC").
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// AddHolidaysTaken increments holidays_taken in place.
func (r *repository) AddHolidaysTaken(ctx context.Context, id uuid.UUID, days int) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("holidays_taken", gorm.Expr("holidays_taken + ?", days)).Error
}

func (r *repository) SetKPI(ctx context.Context, id uuid.UUID, kpi int) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("kpi", kpi).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountReports counts users that reference id on any reporting line.
func (r *repository) CountReports(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("lm_id = ? OR dm_id = ? OR area_id = ?", id, id, id).
		Count(&count).Error
	return count, err
}

func (r *repository) CountPlans(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VisitPlan{}).
		Where("user_id = ?", id).
		Count(&count).Error
	return count, err
}

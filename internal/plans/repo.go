package plans

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
)

// Repository persists visit plans together with their entries, tasks and notes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, plan *models.VisitPlan) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.VisitPlan, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.VisitPlan, error)
	List(ctx context.Context, filter ListFilter) ([]models.VisitPlan, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ReplaceLocations(ctx context.Context, planID uuid.UUID, entries []models.PlanLocation) error
	ReplaceTasks(ctx context.Context, planID uuid.UUID, tasks []models.PlanTask) error
	ReplaceOwnerNotes(ctx context.Context, planID uuid.UUID, notes []models.PlanNote) error
	DeleteOwnerNotesOutside(ctx context.Context, planID uuid.UUID, keep []uuid.UUID) error
	AddNote(ctx context.Context, note *models.PlanNote) error
	FindEntry(ctx context.Context, planID, locationID uuid.UUID) (*models.PlanLocation, error)
	UpdateEntry(ctx context.Context, entryID uuid.UUID, updates map[string]any) error
	FindTask(ctx context.Context, planID, taskID uuid.UUID) (*models.PlanTask, error)
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status enums.TaskStatus) error
	DeleteMany(ctx context.Context, ids []uuid.UUID) error
}

// ListFilter narrows plan listings. A nil UserIDs slice means every owner;
// an empty non-nil slice matches nothing.
type ListFilter struct {
	UserIDs []uuid.UUID
	Type    enums.PlanType
	From    *time.Time
	To      *time.Time
	Keyword string
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a plans repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, plan *models.VisitPlan) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(plan).Error; err != nil {
		return err
	}
	if len(plan.Locations) > 0 {
		if err := db.Omit(clause.Associations).Create(&plan.Locations).Error; err != nil {
			return err
		}
	}
	if len(plan.Tasks) > 0 {
		if err := db.Create(&plan.Tasks).Error; err != nil {
			return err
		}
	}
	if len(plan.Notes) > 0 {
		if err := db.Create(&plan.Notes).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.VisitPlan, error) {
	var plan models.VisitPlan
	if err := r.withChildren(r.db.WithContext(ctx)).First(&plan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.VisitPlan, error) {
	if len(ids) == 0 {
		return []models.VisitPlan{}, nil
	}
	var rows []models.VisitPlan
	err := r.withChildren(r.db.WithContext(ctx)).
		Where("id IN ?", ids).
		Order("visit_date ASC").Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.VisitPlan, error) {
	if filter.UserIDs != nil && len(filter.UserIDs) == 0 {
		return []models.VisitPlan{}, nil
	}
	query := r.withChildren(r.db.WithContext(ctx)).Model(&models.VisitPlan{})
	if filter.UserIDs != nil {
		query = query.Where("visit_plans.user_id IN ?", filter.UserIDs)
	}
	if filter.Type != "" {
		query = query.Where("visit_plans.type = ?", filter.Type)
	}
	if filter.From != nil {
		query = query.Where("visit_plans.visit_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("visit_plans.visit_date < ?", *filter.To)
	}
	if keyword := strings.ToLower(strings.TrimSpace(filter.Keyword)); keyword != "" {
		pattern := "%" + keyword + "%"
		query = query.Where(
			"LOWER(visit_plans.region) LIKE ? OR EXISTS (SELECT 1 FROM plan_notes n WHERE n.plan_id = visit_plans.id AND LOWER(n.body) LIKE ?)",
			pattern, pattern,
		)
	}
	var rows []models.VisitPlan
	err := query.Order("visit_plans.visit_date ASC").Order("visit_plans.created_at ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.VisitPlan{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ReplaceLocations(ctx context.Context, planID uuid.UUID, entries []models.PlanLocation) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("plan_id = ?", planID).Delete(&models.PlanLocation{}).Error; err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	return db.Omit(clause.Associations).Create(&entries).Error
}

func (r *repository) ReplaceTasks(ctx context.Context, planID uuid.UUID, tasks []models.PlanTask) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("plan_id = ?", planID).Delete(&models.PlanTask{}).Error; err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}
	return db.Create(&tasks).Error
}

func (r *repository) ReplaceOwnerNotes(ctx context.Context, planID uuid.UUID, notes []models.PlanNote) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("plan_id = ? AND role = ?", planID, enums.NoteRoleLocation).Delete(&models.PlanNote{}).Error; err != nil {
		return err
	}
	if len(notes) == 0 {
		return nil
	}
	return db.Create(&notes).Error
}

// DeleteOwnerNotesOutside drops owner notes whose location is no longer in keep.
func (r *repository) DeleteOwnerNotesOutside(ctx context.Context, planID uuid.UUID, keep []uuid.UUID) error {
	query := r.db.WithContext(ctx).Where("plan_id = ? AND role = ?", planID, enums.NoteRoleLocation)
	if len(keep) > 0 {
		query = query.Where("location_id IS NULL OR location_id NOT IN ?", keep)
	}
	return query.Delete(&models.PlanNote{}).Error
}

func (r *repository) AddNote(ctx context.Context, note *models.PlanNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *repository) FindEntry(ctx context.Context, planID, locationID uuid.UUID) (*models.PlanLocation, error) {
	var entry models.PlanLocation
	err := r.db.WithContext(ctx).
		Preload("Location").
		Where("plan_id = ? AND location_id = ?", planID, locationID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) UpdateEntry(ctx context.Context, entryID uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.PlanLocation{}).Where("id = ?", entryID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindTask(ctx context.Context, planID, taskID uuid.UUID) (*models.PlanTask, error) {
	var task models.PlanTask
	if err := r.db.WithContext(ctx).Where("plan_id = ? AND id = ?", planID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *repository) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status enums.TaskStatus) error {
	return r.db.WithContext(ctx).Model(&models.PlanTask{}).Where("id = ?", taskID).Update("status", status).Error
}

// DeleteMany removes plans and every row hanging off them, including their
// monthly plan memberships.
func (r *repository) DeleteMany(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)
	children := []any{
		&models.MonthlyPlanEntry{},
		&models.PlanNote{},
		&models.PlanTask{},
		&models.PlanLocation{},
	}
	for _, model := range children {
		if err := db.Where("plan_id IN ?", ids).Delete(model).Error; err != nil {
			return err
		}
	}
	res := db.Where("id IN ?", ids).Delete(&models.VisitPlan{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Locations", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Preload("Locations.Location").
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Preload("Notes", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC").Order("id ASC") })
}

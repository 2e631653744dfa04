// Package plans implements visit plans: ordered location stops with
// tasks, notes and per-stop visit tracking.
package plans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/internal/access"
	"github.com/medhealth/fieldforce-backend/internal/activity"
	"github.com/medhealth/fieldforce-backend/internal/locations"
	"github.com/medhealth/fieldforce-backend/internal/notifications"
	"github.com/medhealth/fieldforce-backend/internal/users"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
	"github.com/medhealth/fieldforce-backend/pkg/metrics"
	"github.com/medhealth/fieldforce-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type supervisor interface {
	CanSupervise(ctx context.Context, actor access.Actor, userID uuid.UUID) (bool, error)
	Hierarchy(ctx context.Context) (*users.Hierarchy, error)
}

type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, filter users.ListFilter) ([]models.User, error)
}

// Service exposes the visit plan engine.
type Service interface {
	Create(ctx context.Context, actor access.Actor, input PlanInput) (*PlanDTO, error)
	CreateTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, input PlanInput) (*models.VisitPlan, error)
	List(ctx context.Context, actor access.Actor, query ListQuery) ([]PlanDTO, error)
	ListByDate(ctx context.Context, actor access.Actor, day types.Date) ([]PlanDTO, error)
	ListCurrentMonth(ctx context.Context, actor access.Actor) ([]PlanDTO, error)
	ListUnderMe(ctx context.Context, actor access.Actor, query RangeQuery) ([]PlanDTO, error)
	Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*PlanDTO, error)
	Update(ctx context.Context, actor access.Actor, id uuid.UUID, input UpdatePlanInput) (*PlanDTO, error)
	Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error

	StartVisit(ctx context.Context, actor access.Actor, planID, locationID uuid.UUID, at Coordinates) (*PlanDTO, error)
	CompleteVisit(ctx context.Context, actor access.Actor, planID, locationID uuid.UUID, at Coordinates) (*PlanDTO, error)
	UnvisitLocation(ctx context.Context, actor access.Actor, planID, locationID uuid.UUID) (*PlanDTO, error)
	SetTaskStatus(ctx context.Context, actor access.Actor, planID, taskID uuid.UUID, input TaskStatusInput) (*PlanDTO, error)
	AddManagerNote(ctx context.Context, actor access.Actor, planID uuid.UUID, input ManagerNoteInput) (*PlanDTO, error)
}

// ServiceParams groups the dependencies of the plans service.
type ServiceParams struct {
	Repo          Repository
	Tx            txRunner
	Locations     locations.Repository
	Users         userDirectory
	Supervisor    supervisor
	Notifications notifications.Repository
	Activity      activity.Recorder
	Metrics       *metrics.Workflow
}

type service struct {
	repo          Repository
	tx            txRunner
	locations     locations.Repository
	users         userDirectory
	supervisor    supervisor
	notifications notifications.Repository
	activity      activity.Recorder
	metrics       *metrics.Workflow
	now           func() time.Time
}

// NewService builds the plans service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "plans repository required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	case params.Locations == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "locations repository required")
	case params.Users == nil || params.Supervisor == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users dependencies required")
	case params.Notifications == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	case params.Activity == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity recorder required")
	}
	return &service{
		repo:          params.Repo,
		tx:            params.Tx,
		locations:     params.Locations,
		users:         params.Users,
		supervisor:    params.Supervisor,
		notifications: params.Notifications,
		activity:      params.Activity,
		metrics:       params.Metrics,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, actor access.Actor, input PlanInput) (*PlanDTO, error) {
	var planID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		plan, err := s.CreateTx(ctx, tx, actor.ID, input)
		if err != nil {
			return err
		}
		planID = plan.ID
		_, err = s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:      actor.ID,
			Type:        enums.ActivityTypePlanCreated,
			Description: fmt.Sprintf("Created a %s plan for %s", plan.Type, plan.Region),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.repo, planID)
}

// CreateTx validates input and inserts a plan inside the caller's
// transaction. It does not record activity.
func (s *service) CreateTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, input PlanInput) (*models.VisitPlan, error) {
	planType, region, err := validatePlanInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.ensureLocations(ctx, tx, input.Locations); err != nil {
		return nil, err
	}
	if err := notesWithinPlan(input.Notes, input.Locations); err != nil {
		return nil, err
	}

	plan := &models.VisitPlan{
		ID:        uuid.New(),
		UserID:    ownerID,
		Type:      planType,
		Region:    region,
		VisitDate: input.VisitDate.Time,
	}
	plan.Locations = newEntries(plan.ID, input.Locations, nil)
	plan.Tasks = newTasks(plan.ID, input.Tasks)
	plan.Notes = ownerNotes(plan.ID, input.Notes)

	if err := s.repo.WithTx(tx).Create(ctx, plan); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create plan")
	}
	return plan, nil
}

func (s *service) List(ctx context.Context, actor access.Actor, query ListQuery) ([]PlanDTO, error) {
	filter := ListFilter{UserIDs: []uuid.UUID{actor.ID}, Keyword: query.Keyword}
	if raw := strings.TrimSpace(query.Type); raw != "" {
		planType, err := enums.ParsePlanType(raw)
		if err != nil {
			return []PlanDTO{}, nil
		}
		filter.Type = planType
	}
	switch {
	case query.Date != nil:
		from, to := query.Date.Time, query.Date.NextDay()
		filter.From, filter.To = &from, &to
	default:
		filter.From, filter.To = dayRange(query.StartDate, query.EndDate)
	}
	return s.list(ctx, filter)
}

func (s *service) ListByDate(ctx context.Context, actor access.Actor, day types.Date) ([]PlanDTO, error) {
	if day.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date is required")
	}
	return s.List(ctx, actor, ListQuery{Date: &day})
}

func (s *service) ListCurrentMonth(ctx context.Context, actor access.Actor) ([]PlanDTO, error) {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	return s.list(ctx, ListFilter{UserIDs: []uuid.UUID{actor.ID}, From: &from, To: &to})
}

func (s *service) ListUnderMe(ctx context.Context, actor access.Actor, query RangeQuery) ([]PlanDTO, error) {
	filter := ListFilter{}
	filter.From, filter.To = dayRange(query.StartDate, query.EndDate)
	switch {
	case actor.HasRole(access.BackOffice...):
	case actor.Role.IsManager():
		hierarchy, err := s.supervisor.Hierarchy(ctx)
		if err != nil {
			return nil, err
		}
		filter.UserIDs = hierarchy.Subordinates(actor.ID)
		if filter.UserIDs == nil {
			filter.UserIDs = []uuid.UUID{}
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot list team plans")
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list team plans")
	}
	out := FromModels(rows)
	if len(out) == 0 {
		return out, nil
	}
	owners, err := s.ownerSummaries(ctx, rows)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].User = owners[out[i].UserID]
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*PlanDTO, error) {
	plan, err := s.find(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	allowed, err := s.supervisor.CanSupervise(ctx, actor, plan.UserID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this plan")
	}
	return FromModel(plan), nil
}

func (s *service) Update(ctx context.Context, actor access.Actor, id uuid.UUID, input UpdatePlanInput) (*PlanDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		plan, err := s.find(ctx, repo, id)
		if err != nil {
			return err
		}
		if !actor.Is(plan.UserID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can edit this plan")
		}

		updates := map[string]any{}
		if input.VisitDate != nil {
			if input.VisitDate.IsZero() {
				return pkgerrors.New(pkgerrors.CodeValidation, "visitDate cannot be empty")
			}
			updates["visit_date"] = input.VisitDate.Time
		}
		if input.Type != nil {
			if !input.Type.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid plan type")
			}
			updates["type"] = *input.Type
		}
		if input.Region != nil {
			region := strings.TrimSpace(*input.Region)
			if region == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "region cannot be empty")
			}
			updates["region"] = region
		}
		updates["updated_at"] = s.now()
		if err := repo.UpdateFields(ctx, plan.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update plan")
		}

		locationIDs := entryLocationIDs(plan.Locations)
		if input.Locations != nil {
			if err := validateLocationList(*input.Locations); err != nil {
				return err
			}
			if err := s.ensureLocations(ctx, tx, *input.Locations); err != nil {
				return err
			}
			existing := make(map[uuid.UUID]models.PlanLocation, len(plan.Locations))
			for _, entry := range plan.Locations {
				existing[entry.LocationID] = entry
			}
			if err := repo.ReplaceLocations(ctx, plan.ID, newEntries(plan.ID, *input.Locations, existing)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace plan locations")
			}
			locationIDs = *input.Locations
			if input.Notes == nil {
				if err := repo.DeleteOwnerNotesOutside(ctx, plan.ID, locationIDs); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "prune plan notes")
				}
			}
		}
		if input.Tasks != nil {
			if err := repo.ReplaceTasks(ctx, plan.ID, newTasks(plan.ID, *input.Tasks)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace plan tasks")
			}
		}
		if input.Notes != nil {
			if err := notesWithinPlan(*input.Notes, locationIDs); err != nil {
				return err
			}
			if err := repo.ReplaceOwnerNotes(ctx, plan.ID, ownerNotes(plan.ID, *input.Notes)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace plan notes")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.repo, id)
}

func (s *service) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		plan, err := s.find(ctx, repo, id)
		if err != nil {
			return err
		}
		if !canManage(actor, plan.UserID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to delete this plan")
		}
		if err := repo.DeleteMany(ctx, []uuid.UUID{plan.ID}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete plan")
		}
		return nil
	})
}

func (s *service) StartVisit(ctx context.Context, actor access.Actor, planID, locationID uuid.UUID, at Coordinates) (*PlanDTO, error) {
	if err := validateCoordinates(at); err != nil {
		return nil, err
	}
	now := s.now()
	return s.transition(ctx, actor, planID, locationID, map[string]any{
		"start_latitude":  *at.Latitude,
		"start_longitude": *at.Longitude,
		"started_at":      now,
	})
}

func (s *service) CompleteVisit(ctx context.Context, actor access.Actor, planID, locationID uuid.UUID, at Coordinates) (*PlanDTO, error) {
	if err := validateCoordinates(at); err != nil {
		return nil, err
	}
	now := s.now()
	return s.transition(ctx, actor, planID, locationID, map[string]any{
		"end_latitude":  *at.Latitude,
		"end_longitude": *at.Longitude,
		"completed_at":  now,
		"status":        enums.VisitStatusCompleted,
	})
}

func (s *service) UnvisitLocation(ctx context.Context, actor access.Actor, planID, locationID uuid.UUID) (*PlanDTO, error) {
	return s.transition(ctx, actor, planID, locationID, map[string]any{
		"start_latitude":  nil,
		"start_longitude": nil,
		"started_at":      nil,
		"end_latitude":    nil,
		"end_longitude":   nil,
		"completed_at":    nil,
		"status":          enums.VisitStatusIncomplete,
	})
}

func (s *service) transition(ctx context.Context, actor access.Actor, planID, locationID uuid.UUID, updates map[string]any) (*PlanDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		plan, err := s.find(ctx, repo, planID)
		if err != nil {
			return err
		}
		if !canManage(actor, plan.UserID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to update visits on this plan")
		}
		entry, err := repo.FindEntry(ctx, plan.ID, locationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "location is not part of this plan")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load plan location")
		}
		if err := repo.UpdateEntry(ctx, entry.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update visit")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.repo, planID)
}

func (s *service) SetTaskStatus(ctx context.Context, actor access.Actor, planID, taskID uuid.UUID, input TaskStatusInput) (*PlanDTO, error) {
	status, err := enums.ParseTaskStatus(strings.TrimSpace(input.Status))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid task status")
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		plan, err := s.find(ctx, repo, planID)
		if err != nil {
			return err
		}
		if !actor.Is(plan.UserID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can update tasks")
		}
		task, err := repo.FindTask(ctx, plan.ID, taskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task")
		}
		if task.Status == status {
			return nil
		}
		if err := repo.UpdateTaskStatus(ctx, task.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update task")
		}
		if status != enums.TaskStatusCompleted {
			return nil
		}
		_, err = s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:      actor.ID,
			Type:        enums.ActivityTypeTaskCompleted,
			Description: fmt.Sprintf("Completed task %q", task.Title),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.repo, planID)
}

func (s *service) AddManagerNote(ctx context.Context, actor access.Actor, planID uuid.UUID, input ManagerNoteInput) (*PlanDTO, error) {
	role, ok := enums.ManagerNoteRole(actor.Role)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot add manager notes")
	}
	body := strings.TrimSpace(input.Note)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note is required")
	}

	author, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "author not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load author")
	}

	var notified *models.Notification
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		plan, err := s.find(ctx, repo, planID)
		if err != nil {
			return err
		}
		entry, err := repo.FindEntry(ctx, plan.ID, input.LocationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "location is not part of this plan")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load plan location")
		}
		locationID := entry.LocationID
		authorID := actor.ID
		note := &models.PlanNote{
			ID:         uuid.New(),
			PlanID:     plan.ID,
			LocationID: &locationID,
			AuthorID:   &authorID,
			Role:       role,
			Body:       body,
		}
		if err := repo.AddNote(ctx, note); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add manager note")
		}

		locationName := locationID.String()
		if entry.Location != nil {
			locationName = entry.Location.Name
		}
		notified = notifications.Build(notifications.Draft{
			RecipientID: plan.UserID,
			SenderID:    &authorID,
			Type:        enums.NotificationTypePlanUpdate,
			Title:       "New manager note",
			Message: fmt.Sprintf("%s (%s) added a note on %s for your visit on %s",
				author.Name, role, locationName, plan.VisitDate.UTC().Format(types.DateLayout)),
			Priority:  enums.NotificationPriorityMedium,
			ActionURL: "/plans/" + plan.ID.String(),
			Metadata: map[string]any{
				"planId":     plan.ID.String(),
				"locationId": locationID.String(),
				"noteId":     note.ID.String(),
			},
		})
		if err := s.notifications.WithTx(tx).Create(ctx, notified); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify plan owner")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.NotificationCreated(string(notified.Type))
	return s.load(ctx, s.repo, planID)
}

func (s *service) list(ctx context.Context, filter ListFilter) ([]PlanDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list plans")
	}
	return FromModels(rows), nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*PlanDTO, error) {
	plan, err := s.find(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	return FromModel(plan), nil
}

func (s *service) find(ctx context.Context, repo Repository, id uuid.UUID) (*models.VisitPlan, error) {
	plan, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load plan")
	}
	return plan, nil
}

func (s *service) ensureLocations(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	found, err := s.locations.WithTx(tx).FindByIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load locations")
	}
	known := make(map[uuid.UUID]struct{}, len(found))
	for _, l := range found {
		known[l.ID] = struct{}{}
	}
	missing := []string{}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "location not found").
			WithDetails(map[string]any{"locations": missing})
	}
	return nil
}

func (s *service) ownerSummaries(ctx context.Context, rows []models.VisitPlan) (map[uuid.UUID]*users.Summary, error) {
	seen := map[uuid.UUID]struct{}{}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.UserID]; ok {
			continue
		}
		seen[row.UserID] = struct{}{}
		ids = append(ids, row.UserID)
	}
	owners, err := s.users.List(ctx, users.ListFilter{IDs: ids})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load plan owners")
	}
	out := make(map[uuid.UUID]*users.Summary, len(owners))
	for i := range owners {
		out[owners[i].ID] = users.SummaryOf(&owners[i])
	}
	return out, nil
}

// canManage covers delete and visit transitions: the owner or ADMIN/GM.
func canManage(actor access.Actor, ownerID uuid.UUID) bool {
	return actor.Is(ownerID) || actor.HasRole(access.UserAdmins...)
}

func validatePlanInput(input PlanInput) (enums.PlanType, string, error) {
	if input.VisitDate.IsZero() {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "visitDate is required")
	}
	planType := input.Type
	if planType == "" {
		planType = enums.PlanTypeDaily
	}
	if !planType.IsValid() {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "invalid plan type")
	}
	region := strings.TrimSpace(input.Region)
	if region == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "region is required")
	}
	if err := validateLocationList(input.Locations); err != nil {
		return "", "", err
	}
	return planType, region, nil
}

func validateLocationList(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one location is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "location id is required")
		}
		if _, dup := seen[id]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate location in plan").
				WithDetails(map[string]any{"locationId": id.String()})
		}
		seen[id] = struct{}{}
	}
	return nil
}

func validateCoordinates(at Coordinates) error {
	if at.Latitude == nil || at.Longitude == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "latitude and longitude are required")
	}
	if *at.Latitude < -90 || *at.Latitude > 90 || *at.Longitude < -180 || *at.Longitude > 180 {
		return pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}
	return nil
}

func notesWithinPlan(notes []LocationNoteInput, locationIDs []uuid.UUID) error {
	inPlan := make(map[uuid.UUID]struct{}, len(locationIDs))
	for _, id := range locationIDs {
		inPlan[id] = struct{}{}
	}
	for _, note := range notes {
		if strings.TrimSpace(note.Note) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "note text is required")
		}
		if _, ok := inPlan[note.LocationID]; !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "note references a location outside the plan").
				WithDetails(map[string]any{"locationId": note.LocationID.String()})
		}
	}
	return nil
}

// newEntries orders the stops as given. Stops found in existing keep their
// id, status and visit data.
func newEntries(planID uuid.UUID, ids []uuid.UUID, existing map[uuid.UUID]models.PlanLocation) []models.PlanLocation {
	out := make([]models.PlanLocation, 0, len(ids))
	for i, id := range ids {
		if prev, ok := existing[id]; ok {
			prev.Position = i
			prev.Location = nil
			out = append(out, prev)
			continue
		}
		out = append(out, models.PlanLocation{
			ID:         uuid.New(),
			PlanID:     planID,
			LocationID: id,
			Position:   i,
			Status:     enums.VisitStatusIncomplete,
		})
	}
	return out
}

func newTasks(planID uuid.UUID, titles []string) []models.PlanTask {
	titles = cleanTasks(titles)
	out := make([]models.PlanTask, 0, len(titles))
	for i, title := range titles {
		out = append(out, models.PlanTask{
			ID:       uuid.New(),
			PlanID:   planID,
			Position: i,
			Title:    title,
			Status:   enums.TaskStatusPending,
		})
	}
	return out
}

func ownerNotes(planID uuid.UUID, notes []LocationNoteInput) []models.PlanNote {
	out := make([]models.PlanNote, 0, len(notes))
	for _, note := range notes {
		locationID := note.LocationID
		out = append(out, models.PlanNote{
			ID:         uuid.New(),
			PlanID:     planID,
			LocationID: &locationID,
			Role:       enums.NoteRoleLocation,
			Body:       strings.TrimSpace(note.Note),
		})
	}
	return out
}

func entryLocationIDs(entries []models.PlanLocation) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.LocationID)
	}
	return out
}

// dayRange turns an inclusive day range into a half-open time window.
func dayRange(start, end *types.Date) (*time.Time, *time.Time) {
	var from, to *time.Time
	if start != nil && !start.IsZero() {
		t := start.Time
		from = &t
	}
	if end != nil && !end.IsZero() {
		t := end.NextDay()
		to = &t
	}
	return from, to
}

// Package monthlyplans groups visit plans into date ranges. Creation and
// deletion of a monthly plan and all of its visit plans are atomic.
package monthlyplans

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
	"github.com/medhealth/fieldforce-backend/internal/plans"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
	"github.com/medhealth/fieldforce-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type planCreator interface {
	CreateTx(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, input plans.PlanInput) (*models.VisitPlan, error)
}

// Service exposes the monthly plan aggregator.
type Service interface {
	Create(ctx context.Context, actor access.Actor, input CreateInput) (*MonthlyPlanDTO, error)
	List(ctx context.Context, actor access.Actor) ([]MonthlyPlanDTO, error)
	Current(ctx context.Context, actor access.Actor) (*MonthlyPlanDTO, error)
	Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*MonthlyPlanDTO, error)
	Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error
}

// ServiceParams groups the dependencies of the monthly plans service.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Plans    planCreator
	PlanRepo plans.Repository
	Activity activity.Recorder
}

type service struct {
	repo     Repository
	tx       txRunner
	plans    planCreator
	planRepo plans.Repository
	activity activity.Recorder
	now      func() time.Time
}

// NewService builds the monthly plans service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "monthly plans repository required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	case params.Plans == nil || params.PlanRepo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "plans dependencies required")
	case params.Activity == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity recorder required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		plans:    params.Plans,
		planRepo: params.PlanRepo,
		activity: params.Activity,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, actor access.Actor, input CreateInput) (*MonthlyPlanDTO, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	monthly := &models.MonthlyPlan{
		ID:        uuid.New(),
		UserID:    actor.ID,
		StartDate: input.StartDate.Time,
		EndDate:   input.EndDate.Time,
		Notes:     trimmedNotes(input.Notes),
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for i, spec := range input.Plans {
			visit, err := s.plans.CreateTx(ctx, tx, actor.ID, spec)
			if err != nil {
				if typed := pkgerrors.As(err); typed != nil && typed.Code() != pkgerrors.CodeDependency {
					return pkgerrors.New(typed.Code(), fmt.Sprintf("plan %d: %s", i+1, typed.Message())).
						WithDetails(typed.Details())
				}
				return err
			}
			monthly.Entries = append(monthly.Entries, models.MonthlyPlanEntry{PlanID: visit.ID, Position: i})
		}
		if err := s.repo.WithTx(tx).Create(ctx, monthly); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create monthly plan")
		}
		_, err := s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:      actor.ID,
			Type:        enums.ActivityTypePlanCreated,
			Description: fmt.Sprintf("Created a monthly plan with %d visit plans", len(input.Plans)),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, monthly.ID)
}

func (s *service) List(ctx context.Context, actor access.Actor) ([]MonthlyPlanDTO, error) {
	rows, err := s.repo.ListByOwner(ctx, actor.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list monthly plans")
	}
	ids := []uuid.UUID{}
	for i := range rows {
		ids = append(ids, planIDs(&rows[i])...)
	}
	visits, err := s.planRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load visit plans")
	}
	out := make([]MonthlyPlanDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *fromModel(&rows[i], visits))
	}
	return out, nil
}

func (s *service) Current(ctx context.Context, actor access.Actor) (*MonthlyPlanDTO, error) {
	today := types.DateOf(s.now())
	monthly, err := s.repo.FindCovering(ctx, actor.ID, today.Time)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no monthly plan covers today")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load current monthly plan")
	}
	return s.populate(ctx, monthly)
}

func (s *service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*MonthlyPlanDTO, error) {
	monthly, err := s.find(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if !actor.Is(monthly.UserID) && !actor.HasRole(access.BackOffice...) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this monthly plan")
	}
	return s.populate(ctx, monthly)
}

func (s *service) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		monthly, err := s.find(ctx, repo, id)
		if err != nil {
			return err
		}
		if !actor.Is(monthly.UserID) && !actor.HasRole(access.UserAdmins...) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to delete this monthly plan")
		}
		if ids := planIDs(monthly); len(ids) > 0 {
			if err := s.planRepo.WithTx(tx).DeleteMany(ctx, ids); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete visit plans")
			}
		}
		if err := repo.Delete(ctx, monthly.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete monthly plan")
		}
		return nil
	})
}

func (s *service) populate(ctx context.Context, monthly *models.MonthlyPlan) (*MonthlyPlanDTO, error) {
	visits, err := s.planRepo.FindByIDs(ctx, planIDs(monthly))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load visit plans")
	}
	return fromModel(monthly, visits), nil
}

func (s *service) find(ctx context.Context, repo Repository, id uuid.UUID) (*models.MonthlyPlan, error) {
	monthly, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "monthly plan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load monthly plan")
	}
	return monthly, nil
}

func validateCreate(input CreateInput) error {
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "startDate and endDate are required")
	}
	if input.EndDate.Before(input.StartDate.Time) {
		return pkgerrors.New(pkgerrors.CodeValidation, "endDate must not be before startDate")
	}
	if len(input.Plans) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one plan is required")
	}
	for i, spec := range input.Plans {
		if spec.VisitDate.IsZero() {
			continue
		}
		if spec.VisitDate.Before(input.StartDate.Time) || spec.VisitDate.After(input.EndDate.Time) {
			return pkgerrors.New(pkgerrors.CodeValidation, "plan visit date outside the monthly range").
				WithDetails(map[string]any{"plan": i + 1, "visitDate": spec.VisitDate.String()})
		}
	}
	return nil
}

func trimmedNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

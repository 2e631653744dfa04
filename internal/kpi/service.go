package kpi

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/internal/access"
	"github.com/medhealth/fieldforce-backend/internal/users"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
	"github.com/medhealth/fieldforce-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userStore interface {
	WithTx(tx *gorm.DB) users.Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, filter users.ListFilter) ([]models.User, error)
}

// Result is a user's evaluated KPI for one period next to the stored score.
type Result struct {
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	Period    Period    `json:"period"`
	Score
	StoredKPI int `json:"storedKpi"`
}

// TrendPoint is one month of a KPI trend.
type TrendPoint struct {
	Month                int `json:"month"`
	Year                 int `json:"year"`
	CompletionPercentage int `json:"completionPercentage"`
	KPI                  int `json:"kpi"`
	Target               int `json:"target"`
}

// CompletedVisit is one completed stop.
type CompletedVisit struct {
	PlanID       uuid.UUID  `json:"planId"`
	LocationID   uuid.UUID  `json:"locationId"`
	LocationName string     `json:"locationName"`
	CompletedAt  *time.Time `json:"completedAt"`
}

// CompletedVisitsResult lists a user's completed visits in a month.
type CompletedVisitsResult struct {
	Period Period           `json:"period"`
	Count  int              `json:"count"`
	Visits []CompletedVisit `json:"visits"`
}

// Service exposes KPI reads and the explicit recompute operations.
// Reads never write.
type Service interface {
	Policy() Policy
	ForUser(ctx context.Context, actor access.Actor, userID uuid.UUID) (*Result, error)
	ForAll(ctx context.Context) ([]Result, error)
	CompletedVisits(ctx context.Context, actor access.Actor, month, year int) (*CompletedVisitsResult, error)
	Trend(ctx context.Context, actor access.Actor, userID uuid.UUID) ([]TrendPoint, error)
	Recompute(ctx context.Context, userID uuid.UUID) (*Result, error)
	RecomputeAll(ctx context.Context) ([]Result, error)
}

// ServiceParams groups the dependencies of the KPI service.
type ServiceParams struct {
	Repo    Repository
	Users   userStore
	Tx      txRunner
	Policy  Policy
	Metrics *metrics.Workflow
}

type service struct {
	repo    Repository
	users   userStore
	tx      txRunner
	policy  Policy
	metrics *metrics.Workflow
	now     func() time.Time
}

// NewService builds the KPI service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "kpi repository required")
	case params.Users == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{
		repo:    params.Repo,
		users:   params.Users,
		tx:      params.Tx,
		policy:  params.Policy,
		metrics: params.Metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Policy() Policy {
	return s.policy
}

func (s *service) ForUser(ctx context.Context, actor access.Actor, userID uuid.UUID) (*Result, error) {
	if err := s.authorize(actor, userID); err != nil {
		return nil, err
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	period := MonthOf(s.now())
	rows, err := s.repo.PlanCounts(ctx, period.Start, period.End, &userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count visits")
	}
	result := s.result(user, period, ByUser(rows)[userID])
	return &result, nil
}

func (s *service) ForAll(ctx context.Context) ([]Result, error) {
	return s.evaluateAll(ctx, s.users, s.repo)
}

func (s *service) CompletedVisits(ctx context.Context, actor access.Actor, month, year int) (*CompletedVisitsResult, error) {
	period, err := ParsePeriod(month, year, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid period")
	}
	rows, err := s.repo.CompletedVisits(ctx, actor.ID, period.Start, period.End)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load completed visits")
	}
	visits := make([]CompletedVisit, 0, len(rows))
	for _, row := range rows {
		visit := CompletedVisit{PlanID: row.PlanID, LocationID: row.LocationID, CompletedAt: row.CompletedAt}
		if row.Location != nil {
			visit.LocationName = row.Location.Name
		}
		visits = append(visits, visit)
	}
	return &CompletedVisitsResult{Period: period, Count: len(visits), Visits: visits}, nil
}

func (s *service) Trend(ctx context.Context, actor access.Actor, userID uuid.UUID) ([]TrendPoint, error) {
	if err := s.authorize(actor, userID); err != nil {
		return nil, err
	}
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}
	months := YearToDate(s.now())
	rows, err := s.repo.PlanCounts(ctx, months[0].Start, months[len(months)-1].End, &userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count visits")
	}
	return s.policy.Trend(months, ByUserMonth(rows)[userID]), nil
}

func (s *service) Recompute(ctx context.Context, userID uuid.UUID) (*Result, error) {
	var out *Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		user, err := repo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		period := MonthOf(s.now())
		rows, err := s.repo.WithTx(tx).PlanCounts(ctx, period.Start, period.End, &userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count visits")
		}
		result := s.result(user, period, ByUser(rows)[userID])
		if err := repo.SetKPI(ctx, userID, result.KPI); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store kpi")
		}
		result.StoredKPI = result.KPI
		out = &result
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.KPIRecomputed("user", 1)
	return out, nil
}

func (s *service) RecomputeAll(ctx context.Context) ([]Result, error) {
	var out []Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		results, err := s.evaluateAll(ctx, repo, s.repo.WithTx(tx))
		if err != nil {
			return err
		}
		for i := range results {
			if err := repo.SetKPI(ctx, results[i].UserID, results[i].KPI); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store kpi")
			}
			results[i].StoredKPI = results[i].KPI
		}
		out = results
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.KPIRecomputed("all", len(out))
	return out, nil
}

func (s *service) evaluateAll(ctx context.Context, userRepo userStore, countRepo Repository) ([]Result, error) {
	all, err := userRepo.List(ctx, users.ListFilter{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	period := MonthOf(s.now())
	rows, err := countRepo.PlanCounts(ctx, period.Start, period.End, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count visits")
	}
	tallies := ByUser(rows)
	out := make([]Result, 0, len(all))
	for i := range all {
		out = append(out, s.result(&all[i], period, tallies[all[i].ID]))
	}
	return out, nil
}

func (s *service) result(user *models.User, period Period, tally Tally) Result {
	return Result{
		UserID:    user.ID,
		Name:      user.Name,
		Period:    period,
		Score:     s.policy.Evaluate(tally.Completed, tally.Total),
		StoredKPI: user.KPI,
	}
}

func (s *service) authorize(actor access.Actor, userID uuid.UUID) error {
	if actor.Is(userID) || actor.HasRole(access.Supervisors...) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this user's kpi")
}

func (s *service) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

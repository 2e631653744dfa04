package dashboard

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/internal/access"
	"github.com/medhealth/fieldforce-backend/internal/activity"
	"github.com/medhealth/fieldforce-backend/internal/kpi"
	"github.com/medhealth/fieldforce-backend/internal/users"
	"github.com/medhealth/fieldforce-backend/pkg/config"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
	"github.com/medhealth/fieldforce-backend/pkg/types"
)

type activityFeed interface {
	activity.Recorder
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Activity, error)
}

type preferenceStore interface {
	UpdatePreferences(ctx context.Context, id uuid.UUID, patch types.PreferencesPatch) (types.Preferences, error)
}

// ActivityInput is the body of POST /dashboard/activities.
type ActivityInput struct {
	Type        string `json:"type" validate:"required"`
	Description string `json:"description" validate:"required,max=500"`
}

// Service serves the dashboard screens.
type Service interface {
	Get(ctx context.Context, actor access.Actor) (*Dashboard, error)
	RecordActivity(ctx context.Context, actor access.Actor, input ActivityInput) (*models.Activity, error)
	UpdatePreferences(ctx context.Context, actor access.Actor, patch types.PreferencesPatch) (types.Preferences, error)
	KPIReport(ctx context.Context, actor access.Actor, w io.Writer) error
}

// ServiceParams groups the dashboard dependencies.
type ServiceParams struct {
	Loader      Loader
	Activity    activityFeed
	Preferences preferenceStore
	Policy      kpi.Policy
	Holidays    config.HolidayConfig
	Config      config.DashboardConfig
}

type service struct {
	loader      Loader
	activity    activityFeed
	preferences preferenceStore
	settings    Settings
	recent      int
	now         func() time.Time
}

// NewService validates params and returns the dashboard service.
func NewService(params ServiceParams) (Service, error) {
	if params.Loader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "dashboard loader required")
	}
	if params.Activity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity feed required")
	}
	if params.Preferences == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "preference store required")
	}
	recent := params.Config.RecentActivities
	if recent <= 0 {
		recent = 5
	}
	leaderboard := params.Config.LeaderboardSize
	if leaderboard <= 0 {
		leaderboard = 5
	}
	return &service{
		loader:      params.Loader,
		activity:    params.Activity,
		preferences: params.Preferences,
		settings: Settings{
			Policy:          params.Policy,
			YearlyCap:       params.Holidays.YearlyCap,
			LeaderboardSize: leaderboard,
		},
		recent: recent,
		now:    time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, actor access.Actor) (*Dashboard, error) {
	now := s.now().UTC()
	snap, err := s.loader.Load(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dashboard")
	}
	var self *models.User
	for i := range snap.Users {
		if snap.Users[i].ID == actor.ID {
			self = &snap.Users[i]
			break
		}
	}
	if self == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	// role on the token may be stale
	actor.Role = self.Role

	out := Aggregate(snap, actor, now, s.settings)
	out.User = users.FromModel(self)
	recent, err := s.activity.Recent(ctx, actor.ID, s.recent)
	if err != nil {
		return nil, err
	}
	out.RecentActivities = recent
	return out, nil
}

func (s *service) RecordActivity(ctx context.Context, actor access.Actor, input ActivityInput) (*models.Activity, error) {
	kind, err := enums.ParseActivityType(input.Type)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid activity type").
			WithDetails(map[string]any{"type": input.Type})
	}
	return s.activity.Record(ctx, activity.Entry{UserID: actor.ID, Type: kind, Description: input.Description})
}

func (s *service) UpdatePreferences(ctx context.Context, actor access.Actor, patch types.PreferencesPatch) (types.Preferences, error) {
	return s.preferences.UpdatePreferences(ctx, actor.ID, patch)
}

func (s *service) KPIReport(ctx context.Context, actor access.Actor, w io.Writer) error {
	if !actor.HasRole(access.BackOffice...) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
	}
	now := s.now().UTC()
	snap, err := s.loader.Load(ctx, now)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load report data")
	}
	board := Aggregate(snap, actor, now, s.settings)
	if err := writeReport(w, board); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write kpi report")
	}
	return nil
}

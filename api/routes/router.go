package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medhealth/fieldforce-backend/api/controllers"
	"github.com/medhealth/fieldforce-backend/api/middleware"
	"github.com/medhealth/fieldforce-backend/internal/access"
	"github.com/medhealth/fieldforce-backend/internal/activity"
	"github.com/medhealth/fieldforce-backend/internal/auth"
	"github.com/medhealth/fieldforce-backend/internal/dashboard"
	"github.com/medhealth/fieldforce-backend/internal/holidays"
	"github.com/medhealth/fieldforce-backend/internal/kpi"
	"github.com/medhealth/fieldforce-backend/internal/locations"
	"github.com/medhealth/fieldforce-backend/internal/monthlyplans"
	"github.com/medhealth/fieldforce-backend/internal/notifications"
	"github.com/medhealth/fieldforce-backend/internal/plans"
	"github.com/medhealth/fieldforce-backend/internal/users"
	"github.com/medhealth/fieldforce-backend/pkg/auth/session"
	"github.com/medhealth/fieldforce-backend/pkg/config"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
	"github.com/medhealth/fieldforce-backend/pkg/logger"
	"github.com/medhealth/fieldforce-backend/pkg/metrics"
	pkgredis "github.com/medhealth/fieldforce-backend/pkg/redis"
)

// Cache is the redis surface the HTTP layer needs for rate limiting and
// idempotent replays.
type Cache interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Dependencies is everything the router hands to controllers. Nil services
// answer with an "unavailable" error instead of panicking.
type Dependencies struct {
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Cache    Cache
	Sessions session.AccessSessionChecker
	Registry prometheus.Gatherer
	Metrics  *metrics.HTTPMetrics

	Auth          auth.Service
	Users         users.Service
	Activity      activity.Service
	Locations     locations.Service
	Plans         plans.Service
	MonthlyPlans  monthlyplans.Service
	KPI           kpi.Service
	Holidays      holidays.Service
	Notifications notifications.Service
	Dashboard     dashboard.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(splitOrigins(cfg.App.CORSOrigins)),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	idempotency := middleware.Idempotency(deps.Cache, middleware.DefaultIdempotencyTTL, logg)
	loginLimit := middleware.AuthRateLimit(loginPolicy, deps.Cache, logg)
	registerLimit := middleware.AuthRateLimit(registerPolicy, deps.Cache, logg)

	cookie := controllers.CookiePolicy{
		Secure: cfg.App.IsProd(),
		TTL:    time.Duration(cfg.JWT.ExpirationMinutes) * time.Minute,
	}
	authenticate := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	userAdmins := middleware.RequireRoles(logg, access.UserAdmins...)
	backOffice := middleware.RequireRoles(logg, access.BackOffice...)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})
	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(registerLimit).Post("/register", controllers.AuthRegister(deps.Auth, cookie, logg))
			r.With(loginLimit).Post("/login", controllers.AuthLogin(deps.Auth, cookie, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Auth, cookie, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, cookie, logg))
			r.With(authenticate, userAdmins).Post("/create-user", controllers.CreateUser(deps.Users, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/users", func(r chi.Router) {
				r.With(userAdmins).Post("/", controllers.CreateUser(deps.Users, logg))
				r.With(backOffice).Get("/", controllers.ListUsers(deps.Users, logg))
				r.With(backOffice).Get("/get/role", controllers.ListUsersByRole(deps.Users, logg))
				r.With(backOffice).Get("/get/emp", controllers.ListEmployees(deps.Users, logg))

				r.Get("/profile", controllers.GetProfile(deps.Users, logg))
				r.Patch("/profile", controllers.UpdateProfile(deps.Users, logg))
				r.Patch("/change-password", controllers.ChangePassword(deps.Users, logg))
				r.Patch("/settings", controllers.UpdateSettings(deps.Users, logg))
				r.Get("/activity-log", controllers.ActivityLog(deps.Activity, logg))

				r.Route("/kpi", func(r chi.Router) {
					r.Get("/user/{userId}", controllers.UserKPI(deps.KPI, logg))
					r.With(userAdmins).Get("/all", controllers.AllKPI(deps.KPI, logg))
					r.Get("/completed-visits", controllers.CompletedVisits(deps.KPI, logg))
					r.Get("/stats", controllers.KPIStats(deps.KPI, logg))
					r.Get("/stats/{userId}", controllers.KPIStats(deps.KPI, logg))
					r.With(userAdmins).Post("/user/{userId}/recompute", controllers.RecomputeUserKPI(deps.KPI, logg))
					r.With(userAdmins).Post("/recompute", controllers.RecomputeAllKPI(deps.KPI, logg))
				})

				r.Get("/{userId}", controllers.GetUser(deps.Users, logg))
				r.With(userAdmins).Put("/{userId}", controllers.UpdateUser(deps.Users, logg))
				r.With(backOffice).Patch("/deactivate/{userId}", controllers.DeactivateUser(deps.Users, logg))
				r.With(middleware.RequireRoles(logg, enums.UserRoleAdmin)).Delete("/{userId}", controllers.DeleteUser(deps.Users, logg))
			})

			r.Route("/locations", func(r chi.Router) {
				r.Post("/", controllers.CreateLocation(deps.Locations, logg))
				r.Get("/", controllers.ListLocations(deps.Locations, logg))
				r.With(backOffice).Post("/import", controllers.ImportLocations(deps.Locations, logg))
				r.Get("/{locationId}", controllers.GetLocation(deps.Locations, logg))
				r.Put("/{locationId}", controllers.UpdateLocation(deps.Locations, logg))
				r.Delete("/{locationId}", controllers.DeleteLocation(deps.Locations, logg))
			})

			r.Route("/plans", func(r chi.Router) {
				r.Post("/", controllers.CreatePlan(deps.Plans, logg))
				r.Get("/", controllers.ListPlans(deps.Plans, logg))
				r.Get("/all", controllers.ListAllPlans(deps.Plans, logg))
				r.Get("/date", controllers.ListPlansByDate(deps.Plans, logg))
				r.Get("/monthly", controllers.ListCurrentMonthPlans(deps.Plans, logg))
				r.Get("/all-under-me", controllers.ListPlansUnderMe(deps.Plans, logg))
				r.Put("/complete/{planId}/{locationId}", controllers.CompleteVisit(deps.Plans, logg))
				r.Put("/unvisit/{planId}/{locationId}", controllers.UnvisitLocation(deps.Plans, logg))
				r.Get("/{planId}", controllers.GetPlan(deps.Plans, logg))
				r.Put("/{planId}", controllers.UpdatePlan(deps.Plans, logg))
				r.Delete("/{planId}", controllers.DeletePlan(deps.Plans, logg))
				r.Put("/{planId}/locations/{locationId}/start", controllers.StartVisit(deps.Plans, logg))
				r.Patch("/{planId}/tasks/{taskId}", controllers.SetTaskStatus(deps.Plans, logg))
				r.Patch("/{planId}/manager-note", controllers.AddManagerNote(deps.Plans, logg))
			})

			r.Route("/monthly-plans", func(r chi.Router) {
				r.With(idempotency).Post("/", controllers.CreateMonthlyPlan(deps.MonthlyPlans, logg))
				r.Get("/", controllers.ListMonthlyPlans(deps.MonthlyPlans, logg))
				r.Get("/current", controllers.CurrentMonthlyPlan(deps.MonthlyPlans, logg))
				r.Get("/{monthlyPlanId}", controllers.GetMonthlyPlan(deps.MonthlyPlans, logg))
				r.Delete("/{monthlyPlanId}", controllers.DeleteMonthlyPlan(deps.MonthlyPlans, logg))
			})

			r.Route("/holidays", func(r chi.Router) {
				r.With(idempotency).Post("/", controllers.RequestHoliday(deps.Holidays, logg))
				r.Get("/", controllers.ListHolidays(deps.Holidays, logg))
				r.Get("/calculate-remaining-holidays", controllers.RemainingHolidays(deps.Holidays, logg))
				r.Get("/holiday/{holidayId}", controllers.GetHoliday(deps.Holidays, logg))
				r.Get("/user/{userId}", controllers.ListUserHolidays(deps.Holidays, logg))
				r.Patch("/{holidayId}", controllers.DecideHoliday(deps.Holidays, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Get("/unread-count", controllers.UnreadNotificationCount(deps.Notifications, logg))
				r.Patch("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
				r.Patch("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
				r.Patch("/{notificationId}/archive", controllers.ArchiveNotification(deps.Notifications, logg))
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/", controllers.GetDashboard(deps.Dashboard, logg))
				r.Post("/activities", controllers.RecordDashboardActivity(deps.Dashboard, logg))
				r.Patch("/preferences", controllers.UpdateDashboardPreferences(deps.Dashboard, logg))
				r.With(backOffice).Get("/kpi-report", controllers.KPIReport(deps.Dashboard, logg))
			})
		})
	})

	return r
}

func splitOrigins(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

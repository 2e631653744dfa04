package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/medhealth/fieldforce-backend/api/routes"
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
	"github.com/medhealth/fieldforce-backend/pkg/db"
	"github.com/medhealth/fieldforce-backend/pkg/logger"
	"github.com/medhealth/fieldforce-backend/pkg/metrics"
	"github.com/medhealth/fieldforce-backend/pkg/migrate"
	"github.com/medhealth/fieldforce-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	workflow := metrics.NewWorkflow(registry)

	deps, err := buildServices(cfg, logg, dbClient, sessionManager, workflow)
	if err != nil {
		return err
	}
	deps.DB = dbClient
	deps.Redis = redisClient
	deps.Cache = redisClient
	deps.Sessions = sessionManager
	deps.Registry = registry
	deps.Metrics = metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessions *session.Manager, workflow *metrics.Workflow) (routes.Dependencies, error) {
	var deps routes.Dependencies
	gdb := dbClient.DB()

	userRepo := users.NewRepository(gdb)
	locationRepo := locations.NewRepository(gdb)
	planRepo := plans.NewRepository(gdb)
	notificationRepo := notifications.NewRepository(gdb)
	kpiRepo := kpi.NewRepository(gdb)
	policy := kpi.NewPolicy(cfg.KPI)

	activitySvc, err := activity.NewService(activity.NewRepository(gdb), dbClient, cfg.Dashboard.ActivityRetention)
	if err != nil {
		return deps, err
	}
	userSvc, err := users.NewService(users.ServiceParams{
		Repo:           userRepo,
		Tx:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return deps, err
	}
	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		UserCreator:    userSvc,
		SessionManager: sessions,
		Activity:       activitySvc,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return deps, err
	}
	locationSvc, err := locations.NewService(locationRepo, dbClient)
	if err != nil {
		return deps, err
	}
	planSvc, err := plans.NewService(plans.ServiceParams{
		Repo:          planRepo,
		Tx:            dbClient,
		Locations:     locationRepo,
		Users:         userRepo,
		Supervisor:    userSvc,
		Notifications: notificationRepo,
		Activity:      activitySvc,
		Metrics:       workflow,
	})
	if err != nil {
		return deps, err
	}
	monthlySvc, err := monthlyplans.NewService(monthlyplans.ServiceParams{
		Repo:     monthlyplans.NewRepository(gdb),
		Tx:       dbClient,
		Plans:    planSvc,
		PlanRepo: planRepo,
		Activity: activitySvc,
	})
	if err != nil {
		return deps, err
	}
	kpiSvc, err := kpi.NewService(kpi.ServiceParams{
		Repo:    kpiRepo,
		Users:   userRepo,
		Tx:      dbClient,
		Policy:  policy,
		Metrics: workflow,
	})
	if err != nil {
		return deps, err
	}
	holidaySvc, err := holidays.NewService(holidays.ServiceParams{
		Repo:          holidays.NewRepository(gdb),
		Users:         userRepo,
		Notifications: notificationRepo,
		Tx:            dbClient,
		Config:        cfg.Holidays,
		Metrics:       workflow,
		Logger:        logg,
	})
	if err != nil {
		return deps, err
	}
	notificationSvc, err := notifications.NewService(notificationRepo)
	if err != nil {
		return deps, err
	}
	dashboardSvc, err := dashboard.NewService(dashboard.ServiceParams{
		Loader:      dashboard.NewLoader(gdb, kpiRepo),
		Activity:    activitySvc,
		Preferences: userSvc,
		Policy:      policy,
		Holidays:    cfg.Holidays,
		Config:      cfg.Dashboard,
	})
	if err != nil {
		return deps, err
	}

	deps.Auth = authSvc
	deps.Users = userSvc
	deps.Activity = activitySvc
	deps.Locations = locationSvc
	deps.Plans = planSvc
	deps.MonthlyPlans = monthlySvc
	deps.KPI = kpiSvc
	deps.Holidays = holidaySvc
	deps.Notifications = notificationSvc
	deps.Dashboard = dashboardSvc
	return deps, nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/medhealth/fieldforce-backend/pkg/config"
	"github.com/medhealth/fieldforce-backend/pkg/db"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/logger"
	"github.com/medhealth/fieldforce-backend/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// create and validate only touch the filesystem
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			fail(logg, fmt.Errorf("missing -name for create"))
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			fail(logg, err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			fail(logg, err)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fail(logg, err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	if err := run(cfg, logg, opts); err != nil {
		fail(logg, err)
	}
}

func run(cfg *config.Config, logg *logger.Logger, opts options) error {
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    opts.cmd,
		"dir":    opts.dir,
		"driver": cfg.DB.Driver,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer dbClient.Close()

	// The SQL files target postgres; a sqlite database is built from the models.
	if cfg.DB.UsesSQLite() {
		if opts.cmd != "up" {
			return fmt.Errorf("-cmd=%s is not supported for the sqlite driver", opts.cmd)
		}
		logg.Info(ctx, "auto-migrating sqlite schema")
		return dbClient.DB().WithContext(ctx).AutoMigrate(models.All()...)
	}

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}
	logg.Info(ctx, "migrate ready")

	switch opts.cmd {
	case "up", "down", "status":
		if err := migrate.Run(ctx, sqlDB, opts.dir, opts.cmd); err != nil {
			return fmt.Errorf("goose %s: %w", opts.cmd, err)
		}
	case "version":
		if opts.version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version); err != nil {
			return fmt.Errorf("goose version: %w", err)
		}
	default:
		return fmt.Errorf("unknown -cmd value: %s", opts.cmd)
	}
	logg.Info(ctx, "migrate finished")
	return nil
}

func fail(logg *logger.Logger, err error) {
	logg.Error(context.Background(), "migrate failed", err)
	os.Exit(1)
}

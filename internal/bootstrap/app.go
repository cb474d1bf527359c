package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"thientai/internal/bootstrap/config"
	"thientai/internal/bootstrap/database"
	"thientai/internal/bootstrap/logging"
	"thientai/internal/errs"
	"thientai/internal/infrastructure/persistence/schema"
)

// App bundles process-wide state. DB is nil when the store failed to
// initialize; the rest of the system then runs in degraded, stateless
// mode instead of refusing to start.
type App struct {
	Config   config.Config
	DB       *gorm.DB
	StoreErr error
}

func New(ctx context.Context, configFile string) (*App, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))

	cfg, err := config.Load(logCtx, configFile)
	if err != nil {
		return nil, errs.Wrap(err, "load config")
	}

	app := &App{Config: cfg}

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		app.StoreErr = err
		logging.Warn(logCtx, "store unavailable, continuing stateless",
			slog.Any("err", errs.Loggable(err)))
		return app, nil
	}
	app.DB = db

	logging.Info(logCtx, "application bootstrap completed", slog.String("database_driver", cfg.Database.Driver))
	return app, nil
}

// InitSchema applies the versioned migrations and one-time reference
// seeding. Safe to re-run on any schema vintage.
func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if a.DB == nil {
		return errors.New("store unavailable")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration")

	if err := schema.Migrate(ctx, a.DB); err != nil {
		return errs.Wrap(err, "apply migrations")
	}
	if err := schema.SeedReference(ctx, a.DB); err != nil {
		return errs.Wrap(err, "seed reference data")
	}

	logging.Info(logCtx, "schema migration completed")
	return nil
}

func (a *App) Close(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if a.DB == nil {
		return nil
	}

	sqlDB, err := a.DB.DB()
	if err != nil {
		return errs.Wrap(err, "get sql db")
	}
	if err := sqlDB.Close(); err != nil {
		return errs.Wrap(err, "close sql db")
	}

	logging.Info(logging.WithAttrs(ctx, slog.String("component", "bootstrap.app")), "database connection closed")
	return nil
}

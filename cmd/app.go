package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"github.com/axellelanca/trackit/internal/config"
	"github.com/axellelanca/trackit/internal/database"
	"github.com/axellelanca/trackit/internal/logger"
	"github.com/axellelanca/trackit/internal/metrics"
	"github.com/axellelanca/trackit/internal/repository"
	"github.com/axellelanca/trackit/internal/services"
	"github.com/axellelanca/trackit/internal/tracking"
)

// App is the wired application shared by the server and the CLI commands.
type App struct {
	Config   *config.Config
	Log      logger.Logger
	DB       *gorm.DB
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Visits    *repository.GormVisitRepository
	Settings  *services.SettingsService
	Recorder  *services.VisitRecorder
	Reports   *services.ReportService
	Retention *services.RetentionService
}

// Bootstrap opens the database and builds every service from Cfg. With
// activate set, the schema is migrated and missing settings get their
// defaults; otherwise the stored settings are only loaded.
func Bootstrap(ctx context.Context, activate bool) (*App, error) {
	if Cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return NewApp(ctx, Cfg, activate)
}

// NewApp is Bootstrap for an explicit configuration.
func NewApp(ctx context.Context, cfg *config.Config, activate bool) (*App, error) {
	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Development})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	db, err := database.Open(cfg.Database, verbose)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Report.Location()
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("load report timezone: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	visits := repository.NewVisitRepository(db)
	settings := services.NewSettingsService(repository.NewOptionRepository(db), tracking.Configuration{
		TrackedRoles:     tracking.NewRoleSet(cfg.Tracking.DefaultRoles...),
		EraseOnUninstall: cfg.Tracking.DefaultEraseOnUninstall,
	}, cfg.Tracking.AvailableRoles)

	app := &App{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Registry:  reg,
		Metrics:   m,
		Visits:    visits,
		Settings:  settings,
		Recorder:  services.NewVisitRecorder(visits, log, m, cfg.Tracking.RecordTimeout),
		Reports:   services.NewReportService(visits, loc, cfg.Report.PageSize),
		Retention: services.NewRetentionService(visits, settings, log),
	}

	if activate {
		err = app.activate(ctx)
	} else {
		err = settings.Refresh(ctx)
	}
	if err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) activate(ctx context.Context) error {
	if err := database.Migrate(a.DB); err != nil {
		return err
	}
	if err := a.Settings.Activate(ctx); err != nil {
		return err
	}
	a.Log.Info("Schema migrated and settings activated",
		logger.String("driver", a.Config.Database.Driver),
		logger.Strings("tracked_roles", a.Settings.Current().TrackedRoles.Sorted()),
	)
	return nil
}

// Close flushes the logger and closes the database.
func (a *App) Close() {
	if err := database.Close(a.DB); err != nil {
		a.Log.Warn("Failed to close database", logger.Error(err))
	}
	_ = a.Log.Sync()
}

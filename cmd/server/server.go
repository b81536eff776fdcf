package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/axellelanca/trackit/cmd"
	"github.com/axellelanca/trackit/internal/api"
	"github.com/axellelanca/trackit/internal/logger"
	"github.com/axellelanca/trackit/internal/monitor"
	"github.com/axellelanca/trackit/internal/workers"
)

// RunServerCmd starts the HTTP server and the background processes.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Start the tracking server",
	Long: `Migrates the schema, activates the settings, starts the visit workers
(when tracking.worker_count > 0) and the store monitor, then serves the
tracked site routes and the admin API until SIGINT or SIGTERM.`,
	RunE: func(c *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := cmd.Bootstrap(ctx, true)
		if err != nil {
			return err
		}
		defer app.Close()
		return serve(ctx, app)
	},
}

func serve(ctx context.Context, app *cmd.App) error {
	cfg := app.Config
	log := app.Log

	// Visits go through the worker pool when one is configured, inline otherwise.
	var tracker api.PageViewHandler = app.Recorder
	var dispatcher *workers.Dispatcher
	if cfg.Tracking.WorkerCount > 0 {
		dispatcher = workers.NewDispatcher(app.Recorder, cfg.Tracking.BufferSize, log, app.Metrics)
		dispatcher.Start(cfg.Tracking.WorkerCount)
		tracker = dispatcher
	}

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	interval := time.Duration(cfg.Monitor.IntervalMinutes) * time.Minute
	if interval > 0 {
		storeMonitor := monitor.NewStoreMonitor(app.Visits, interval, log, app.Metrics)
		go storeMonitor.Start(monitorCtx)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	api.SetupRoutes(router, api.Deps{
		Tracker:   tracker,
		Settings:  app.Settings,
		Reports:   app.Reports,
		Retention: app.Retention,
		Identity:  api.HeaderIdentity{},
		Metrics:   app.Metrics,
		Gatherer:  app.Registry,
		Log:       log,
		SkipBots:  cfg.Tracking.SkipBots,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", logger.Error(err))
	}
	stopMonitor()
	if dispatcher != nil {
		if err := dispatcher.Stop(shutdownCtx); err != nil {
			log.Warn("Pending visits lost at shutdown", logger.Error(err))
		}
	}

	log.Info("Server stopped")
	return nil
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}

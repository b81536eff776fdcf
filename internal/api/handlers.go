package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	customerrors "github.com/axellelanca/trackit/internal/errors"
	"github.com/axellelanca/trackit/internal/logger"
	"github.com/axellelanca/trackit/internal/metrics"
	"github.com/axellelanca/trackit/internal/services"
	"github.com/axellelanca/trackit/internal/tracking"
)

// PageViewHandler accepts page views. *services.VisitRecorder records them
// inline and *workers.Dispatcher queues them.
type PageViewHandler interface {
	OnPageView(ctx context.Context, pv services.PageView, cfg tracking.Configuration) bool
}

// SettingsProvider reads and updates the tracking configuration.
type SettingsProvider interface {
	Current() tracking.Configuration
	Save(ctx context.Context, cfg tracking.Configuration) error
	AvailableRoles() []string
}

// Deps are the services the routes are wired to.
type Deps struct {
	Tracker   PageViewHandler
	Settings  SettingsProvider
	Reports   *services.ReportService
	Retention *services.RetentionService
	Identity  IdentityResolver
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Log       logger.Logger
	SkipBots  bool
}

// SetupRoutes installs the middleware chain and every route on router.
// Routes not registered here are the host's pages and get tracked.
func SetupRoutes(router *gin.Engine, deps Deps) {
	if deps.Identity == nil {
		deps.Identity = HeaderIdentity{}
	}

	router.Use(RequestIDMiddleware(), LoggerMiddleware(deps.Log), RecoveryMiddleware(deps.Log))
	if deps.SkipBots {
		router.Use(BotFilter())
	}
	router.Use(TrackVisits(deps.Tracker, deps.Settings, deps.Identity, deps.Metrics))

	router.GET("/health", HealthCheckHandler)
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/track", TrackElementHandler(deps.Tracker, deps.Settings, deps.Identity))

		admin := v1.Group("/admin")
		admin.GET("/stats", DailyStatsHandler(deps.Reports, deps.Log))
		admin.GET("/visits", ListVisitsHandler(deps.Reports, deps.Log))
		admin.POST("/reset", ResetHandler(deps.Retention, deps.Log))
		admin.GET("/settings", GetSettingsHandler(deps.Settings))
		admin.PUT("/settings", UpdateSettingsHandler(deps.Settings, deps.Log))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
	})
}

// HealthCheckHandler handles /health.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TrackElementRequest is the body of POST /api/v1/track.
type TrackElementRequest struct {
	CustomElement string `json:"custom_element"`
}

// TrackElementHandler records a visit tagged with a custom element. The page
// URL is taken from the Referer header, falling back to the request URL.
func TrackElementHandler(tracker PageViewHandler, settings SettingsProvider, identity IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TrackElementRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		pageURL := c.Request.Referer()
		if pageURL == "" {
			pageURL = tracking.SourceURL(c.Request)
		}

		recorded := tracker.OnPageView(c.Request.Context(), services.PageView{
			FullURL:       pageURL,
			CustomElement: req.CustomElement,
			Visitor:       identity.Resolve(c.Request),
		}, settings.Current())

		c.JSON(http.StatusOK, gin.H{"recorded": recorded})
	}
}

// DailyStatsHandler returns the 24 hour and 30 day counters.
func DailyStatsHandler(reports *services.ReportService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := reports.DailyStats(c.Request.Context())
		if err != nil {
			storageFailure(c, log, "Failed to compute daily stats", err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// ListVisitsHandler returns one page of the listing. The page number comes
// from ?p=; missing or malformed values read as page 1.
func ListVisitsHandler(reports *services.ReportService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := strconv.Atoi(c.DefaultQuery("p", "1"))
		if err != nil {
			page = 1
		}

		result, err := reports.ListPage(c.Request.Context(), page, 0)
		if err != nil {
			storageFailure(c, log, "Failed to list visits", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"rows":         result.Rows,
			"current_page": result.CurrentPage,
			"total_pages":  result.TotalPages,
			"total_count":  result.TotalCount,
			"page_size":    result.PageSize,
			"window":       result.Window.Pages(),
			"has_previous": result.HasPrevious(),
			"has_next":     result.HasNext(),
		})
	}
}

// ResetHandler deletes every visit.
func ResetHandler(retention *services.RetentionService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := retention.ResetData(c.Request.Context()); err != nil {
			storageFailure(c, log, "Failed to reset tracking data", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "reset"})
	}
}

// SettingsPayload is the wire form of the tracking configuration.
type SettingsPayload struct {
	TrackedRoles     []string `json:"tracked_roles"`
	EraseOnUninstall bool     `json:"erase_on_uninstall"`
}

// GetSettingsHandler returns the active configuration and the roles on offer.
func GetSettingsHandler(settings SettingsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := settings.Current()
		c.JSON(http.StatusOK, gin.H{
			"tracked_roles":      cfg.TrackedRoles.Sorted(),
			"erase_on_uninstall": cfg.EraseOnUninstall,
			"available_roles":    settings.AvailableRoles(),
		})
	}
}

// UpdateSettingsHandler replaces the configuration.
func UpdateSettingsHandler(settings SettingsProvider, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SettingsPayload
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		cfg := tracking.Configuration{
			TrackedRoles:     tracking.NewRoleSet(req.TrackedRoles...),
			EraseOnUninstall: req.EraseOnUninstall,
		}
		if err := settings.Save(c.Request.Context(), cfg); err != nil {
			if errors.Is(err, customerrors.ErrUnknownRole) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			storageFailure(c, log, "Failed to save settings", err)
			return
		}

		c.JSON(http.StatusOK, SettingsPayload{
			TrackedRoles:     cfg.TrackedRoles.Sorted(),
			EraseOnUninstall: cfg.EraseOnUninstall,
		})
	}
}

func storageFailure(c *gin.Context, log logger.Logger, msg string, err error) {
	_ = c.Error(err)
	log.Error(msg, logger.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

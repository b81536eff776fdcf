package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/axellelanca/trackit/internal/logger"
	"github.com/axellelanca/trackit/internal/metrics"
	"github.com/axellelanca/trackit/internal/services"
	"github.com/axellelanca/trackit/internal/tracking"
)

// Context keys set by the middleware chain.
const (
	requestIDKey = "request_id"
	isBotKey     = "is_bot"
)

const requestIDHeader = "X-Request-ID"

// untrackedRoots are route trees that are never page views.
var untrackedRoots = []string{"/health", "/metrics", "/api"}

// botPatterns are known bot User-Agent substrings (lowercase).
var botPatterns = []string{
	"googlebot", "bingbot", "slurp", "duckduckbot",
	"baiduspider", "yandexbot", "facebookexternalhit",
	"twitterbot", "linkedinbot", "applebot",
	"semrushbot", "ahrefsbot", "mj12bot", "petalbot",
	"bytespider", "curl/", "wget/",
}

// LoggerMiddleware logs one structured line per request.
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
		}
		if id := c.GetString(requestIDKey); id != "" {
			fields = append(fields, logger.String("request_id", id))
		}

		if len(c.Errors) > 0 {
			msgs := make([]string, len(c.Errors))
			for i, err := range c.Errors {
				msgs[i] = err.Err.Error()
			}
			fields = append(fields, logger.Strings("errors", msgs))
			log.Error("HTTP request with errors", fields...)
			return
		}
		log.Info("HTTP request", fields...)
	}
}

// RecoveryMiddleware turns a panic into a logged 500.
func RecoveryMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("Panic recovered",
					logger.Any("error", err),
					logger.String("path", c.Request.URL.Path),
					logger.String("method", c.Request.Method),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
		}()
		c.Next()
	}
}

// RequestIDMiddleware propagates X-Request-ID or assigns a new uuid.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// BotFilter flags known crawler user agents so TrackVisits can skip them.
func BotFilter() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isBot(strings.ToLower(c.Request.UserAgent())) {
			c.Set(isBotKey, true)
		}
		c.Next()
	}
}

func isBot(ua string) bool {
	for _, pattern := range botPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}

// TrackVisits reports every GET page view to tracker before the page is
// rendered. Recording never affects the response.
func TrackVisits(tracker PageViewHandler, settings SettingsProvider, identity IdentityResolver, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || !isTrackable(c.Request.URL.Path) {
			c.Next()
			return
		}
		if c.GetBool(isBotKey) {
			m.VisitsSkipped.WithLabelValues(metrics.ReasonBot).Inc()
			c.Next()
			return
		}

		tracker.OnPageView(c.Request.Context(), services.PageView{
			FullURL: tracking.SourceURL(c.Request),
			Visitor: identity.Resolve(c.Request),
		}, settings.Current())

		c.Next()
	}
}

func isTrackable(path string) bool {
	for _, root := range untrackedRoots {
		if path == root || strings.HasPrefix(path, root+"/") {
			return false
		}
	}
	return true
}

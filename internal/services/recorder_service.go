package services

import (
	"context"
	"time"

	"github.com/axellelanca/trackit/internal/logger"
	"github.com/axellelanca/trackit/internal/metrics"
	"github.com/axellelanca/trackit/internal/repository"
	"github.com/axellelanca/trackit/internal/tracking"
)

// PageView is what the host knows about one page request.
type PageView struct {
	FullURL       string
	CustomElement string
	Visitor       tracking.Visitor
}

// VisitRecorder turns qualifying page views into stored visits.
// It never returns an error: a lost visit must not break page delivery.
type VisitRecorder struct {
	store   repository.VisitStore
	log     logger.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// NewVisitRecorder creates a VisitRecorder whose inserts are bounded by timeout.
func NewVisitRecorder(store repository.VisitStore, log logger.Logger, m *metrics.Metrics, timeout time.Duration) *VisitRecorder {
	return &VisitRecorder{store: store, log: log, metrics: m, timeout: timeout}
}

// OnPageView is the single entry point a host calls once per page request.
func (r *VisitRecorder) OnPageView(ctx context.Context, pv PageView, cfg tracking.Configuration) bool {
	return r.RecordVisit(ctx, pv, cfg.TrackedRoles)
}

// RecordVisit stores pv when the visitor qualifies under tracked and reports
// whether a visit was written. Storage failures are logged and counted only.
func (r *VisitRecorder) RecordVisit(ctx context.Context, pv PageView, tracked tracking.RoleSet) bool {
	if !tracking.ShouldRecord(tracked, pv.Visitor) {
		r.metrics.VisitsSkipped.WithLabelValues(metrics.ReasonRoleFiltered).Inc()
		return false
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	id, err := r.store.Insert(ctx, pv.FullURL, pv.CustomElement)
	if err != nil {
		r.metrics.VisitsFailed.Inc()
		r.log.Error("Failed to record visit",
			logger.Error(err),
			logger.String("source_url", pv.FullURL),
			logger.String("custom_element", pv.CustomElement),
		)
		return false
	}

	r.metrics.VisitsRecorded.Inc()
	r.log.Debug("Visit recorded",
		logger.Uint64("id", id),
		logger.String("source_url", pv.FullURL),
	)
	return true
}

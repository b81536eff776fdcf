// Package metrics exposes prometheus instruments for visit ingestion and store health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons reported by VisitsSkipped.
const (
	ReasonRoleFiltered = "role_filtered"
	ReasonBot          = "bot"
)

// Metrics groups the counters and gauges of the tracker.
type Metrics struct {
	VisitsRecorded prometheus.Counter
	VisitsSkipped  *prometheus.CounterVec
	VisitsFailed   prometheus.Counter
	VisitsDropped  prometheus.Counter
	StoreUp        prometheus.Gauge
}

// New creates the instruments and registers them on reg when reg is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VisitsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trackit",
			Name:      "visits_recorded_total",
			Help:      "Visits written to the store.",
		}),
		VisitsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trackit",
			Name:      "visits_skipped_total",
			Help:      "Page views not recorded, by reason.",
		}, []string{"reason"}),
		VisitsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trackit",
			Name:      "visits_failed_total",
			Help:      "Qualifying visits lost to a storage error or timeout.",
		}),
		VisitsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trackit",
			Name:      "visits_dropped_total",
			Help:      "Qualifying visits dropped because the dispatch buffer was full.",
		}),
		StoreUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trackit",
			Name:      "store_up",
			Help:      "1 when the last store health probe succeeded.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.VisitsRecorded, m.VisitsSkipped, m.VisitsFailed, m.VisitsDropped, m.StoreUp)
	}
	return m
}

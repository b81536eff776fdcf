package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	customerrors "github.com/axellelanca/trackit/internal/errors"
	"github.com/axellelanca/trackit/internal/logger"
	"github.com/axellelanca/trackit/internal/metrics"
)

// probeTimeout bounds a single health probe.
const probeTimeout = 5 * time.Second

// Prober is the store call used as a health probe. repository.VisitStore satisfies it.
type Prober interface {
	CountAll(ctx context.Context) (int64, error)
}

// StoreMonitor periodically probes the visit store and reports availability
// changes. It keeps the last known state so only transitions are logged at
// warning level.
type StoreMonitor struct {
	store    Prober           // Store probed with a COUNT query
	interval time.Duration    // Time between two probes
	log      logger.Logger    // Structured logger for state transitions
	metrics  *metrics.Metrics // Holds the StoreUp gauge

	mu    sync.Mutex // Guards known and up
	known bool       // Whether a probe has run yet
	up    bool       // Result of the last probe
}

// NewStoreMonitor creates a StoreMonitor probing every interval.
func NewStoreMonitor(store Prober, interval time.Duration, log logger.Logger, m *metrics.Metrics) *StoreMonitor {
	return &StoreMonitor{store: store, interval: interval, log: log, metrics: m}
}

// Start runs the probe loop until ctx is cancelled. A probe runs immediately,
// then once per interval.
func (m *StoreMonitor) Start(ctx context.Context) {
	m.log.Info("Starting store monitor", logger.Duration("interval", m.interval))
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Probe once on startup so the gauge is set before the first tick
	_ = m.Check(ctx)

	// Main loop, one probe per tick until the server shuts down
	for {
		select {
		case <-ctx.Done():
			m.log.Info("Store monitor stopped")
			return
		case <-ticker.C:
			_ = m.Check(ctx)
		}
	}
}

// Check probes the store once, updates the state and the gauge, and returns
// ErrStoreUnavailable when the probe failed.
func (m *StoreMonitor) Check(ctx context.Context) error {
	// A stuck database must not block the loop past one probe
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	total, err := m.store.CountAll(ctx)
	current := err == nil

	// Swap the stored state under the lock, then log outside it
	m.mu.Lock()
	previous, known := m.up, m.known
	m.up, m.known = current, true
	m.mu.Unlock()

	// Export the probe result as 1 (up) or 0 (down)
	if current {
		m.metrics.StoreUp.Set(1)
	} else {
		m.metrics.StoreUp.Set(0)
	}

	switch {
	case !known:
		// First probe: record the starting state
		m.log.Info("Initial store state", logger.String("state", formatState(current)), logger.Int64("visits", total))
	case previous != current:
		// The store went down or came back
		m.log.Warn("Store state changed",
			logger.String("from", formatState(previous)),
			logger.String("to", formatState(current)),
		)
	}

	if err != nil {
		m.log.Debug("Store probe failed", logger.Error(err))
		return fmt.Errorf("%w: %w", customerrors.ErrStoreUnavailable, err)
	}
	return nil
}

// Up reports the result of the last probe. It is false before the first probe.
func (m *StoreMonitor) Up() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.known && m.up
}

// formatState renders a probe result for the logs.
func formatState(up bool) string {
	if up {
		return "AVAILABLE"
	}
	return "UNAVAILABLE"
}

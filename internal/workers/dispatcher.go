// Package workers runs the asynchronous visit recording pool.
package workers

import (
	"context"
	"sync"

	"github.com/axellelanca/trackit/internal/logger"
	"github.com/axellelanca/trackit/internal/metrics"
	"github.com/axellelanca/trackit/internal/services"
	"github.com/axellelanca/trackit/internal/tracking"
)

// Recorder stores one page view. *services.VisitRecorder implements it.
type Recorder interface {
	OnPageView(ctx context.Context, pv services.PageView, cfg tracking.Configuration) bool
}

// VisitEvent is a page view waiting in the dispatch buffer, with the
// configuration that was active when the request was served.
type VisitEvent struct {
	PageView services.PageView      // URL and visitor of the request
	Config   tracking.Configuration // Tracked roles at request time
}

// Dispatcher hands page views to a pool of workers so the request path never
// waits on the store. When the buffer is full the visit is dropped.
type Dispatcher struct {
	events   chan VisitEvent  // Bounded buffer between handlers and workers
	recorder Recorder         // Performs the actual insert
	log      logger.Logger    // Structured logger for drops and lifecycle
	metrics  *metrics.Metrics // Skip and drop counters

	ctx    context.Context    // Passed to every insert, cancelled by Stop
	cancel context.CancelFunc // Cancels ctx
	wg     sync.WaitGroup     // Tracks running workers

	mu     sync.RWMutex // Orders sends against close(events)
	closed bool         // Set once Stop has closed the buffer
}

// NewDispatcher creates a Dispatcher with a buffer of bufferSize events.
func NewDispatcher(recorder Recorder, bufferSize int, log logger.Logger, m *metrics.Metrics) *Dispatcher {
	// A zero buffer makes every send a hand-off to an idle worker
	if bufferSize < 0 {
		bufferSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		events:   make(chan VisitEvent, bufferSize),
		recorder: recorder,
		log:      log,
		metrics:  m,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches workerCount workers reading from the buffer.
func (d *Dispatcher) Start(workerCount int) {
	d.log.Info("Starting visit workers", logger.Int("workers", workerCount), logger.Int("buffer", cap(d.events)))
	for i := 0; i < workerCount; i++ {
		d.wg.Add(1)
		go d.work()
	}
}

// work records queued visits one at a time.
func (d *Dispatcher) work() {
	defer d.wg.Done()
	// Range exits once Stop closes the channel and the buffer is drained.
	for ev := range d.events {
		d.recorder.OnPageView(d.ctx, ev.PageView, ev.Config)
	}
}

// OnPageView queues pv without blocking and reports whether it was accepted.
// The request context is not used: the visit outlives the request.
func (d *Dispatcher) OnPageView(_ context.Context, pv services.PageView, cfg tracking.Configuration) bool {
	// Filter on roles here so untracked visitors never take a buffer slot
	if !tracking.ShouldRecord(cfg.TrackedRoles, pv.Visitor) {
		d.metrics.VisitsSkipped.WithLabelValues(metrics.ReasonRoleFiltered).Inc()
		return false
	}

	// Read lock: many handlers may send at once, Stop takes the write lock to close
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(pv, "dispatcher stopped")
		return false
	}

	// Non-blocking send, a full buffer drops the visit
	select {
	case d.events <- VisitEvent{PageView: pv, Config: cfg}:
		return true
	default:
		d.drop(pv, "buffer full")
		return false
	}
}

// drop counts and logs a visit that will not be recorded.
func (d *Dispatcher) drop(pv services.PageView, reason string) {
	d.metrics.VisitsDropped.Inc()
	d.log.Warn("Dropping visit",
		logger.String("reason", reason),
		logger.String("source_url", pv.FullURL),
	)
}

// Stop closes the buffer and waits for the workers to drain it. If ctx ends
// first, in-flight inserts are cancelled and ctx.Err() is returned.
func (d *Dispatcher) Stop(ctx context.Context) error {
	// Close exactly once, after in-progress sends have released the read lock
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.events)
	d.mu.Unlock()

	// Wait for the workers in a goroutine so ctx can cut the wait short
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		d.log.Info("Visit workers stopped")
		return nil
	case <-ctx.Done():
		// Cancel in-flight inserts, then wait for the workers to return
		d.cancel()
		<-done
		d.log.Warn("Visit workers stopped before draining", logger.Error(ctx.Err()))
		return ctx.Err()
	}
}

// Pending is the number of events waiting in the buffer.
func (d *Dispatcher) Pending() int {
	return len(d.events)
}

// Package worker batches metric events into Postgres. Handlers record events
// into an in-process buffer and return immediately; a background flusher
// writes them in bulk. It is intentionally decoupled from the HTTP layer:
// the api package holds a worker.Recorder interface and calls Record — it
// never imports the concrete Flusher type.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/printloom/storefront-backend/internal/store"
)

// ─── RECORDER INTERFACE ──────────────────────────────────────────────────────

// Recorder is the narrow interface the api package uses to report events.
// Keeping it here (not in api/) means api/ does not import worker internals.
type Recorder interface {
	// Record buffers one event. It never blocks a request: if the buffer is
	// full the event is dropped and counted, because losing a page view is
	// cheaper than stalling the page.
	Record(e store.MetricEvent)
}

// ─── FLUSHER ─────────────────────────────────────────────────────────────────

// FlusherConfig holds tuning parameters. Zero values select the defaults.
type FlusherConfig struct {
	// Interval is how often buffered events are written out. Default: 15s.
	Interval time.Duration

	// BatchSize flushes early once this many events are buffered. Default: 100.
	BatchSize int
}

// DefaultFlusherConfig returns safe production defaults.
func DefaultFlusherConfig() FlusherConfig {
	return FlusherConfig{
		Interval:  15 * time.Second,
		BatchSize: 100,
	}
}

// Flusher accepts events via Record and writes them to the store in batches,
// on a ticker or whenever a batch fills, whichever comes first. On shutdown
// it drains whatever is buffered before returning.
type Flusher struct {
	q      store.Querier
	cfg    FlusherConfig
	logger *slog.Logger

	events  chan store.MetricEvent
	wg      sync.WaitGroup
	dropped int64
	mu      sync.Mutex
}

// NewFlusher constructs a Flusher. Call Start() exactly once to begin
// flushing; Wait() blocks until that Start call has drained and returned.
func NewFlusher(q store.Querier, cfg FlusherConfig, logger *slog.Logger) *Flusher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultFlusherConfig().Interval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultFlusherConfig().BatchSize
	}

	f := &Flusher{
		q:      q,
		cfg:    cfg,
		logger: logger,
		// Buffer = BatchSize*4 so short bursts never drop.
		events: make(chan store.MetricEvent, cfg.BatchSize*4),
	}
	// Registered here, not in Start: if Start runs in a goroutine that has
	// not been scheduled yet when shutdown begins, Wait must still block
	// until the drain has happened.
	f.wg.Add(1)
	return f
}

// Record implements Recorder.
func (f *Flusher) Record(e store.MetricEvent) {
	select {
	case f.events <- e:
	default:
		f.mu.Lock()
		f.dropped++
		f.mu.Unlock()
	}
}

// Start runs the flush loop until ctx is cancelled, then drains the buffer.
// It blocks; run it in its own goroutine.
func (f *Flusher) Start(ctx context.Context) {
	defer f.wg.Done()

	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	batch := make([]store.MetricEvent, 0, f.cfg.BatchSize)

	flush := func(parent context.Context) {
		if len(batch) == 0 {
			return
		}
		// Bounded write context so a slow database cannot wedge the loop.
		flushCtx, cancel := context.WithTimeout(parent, 10*time.Second)
		defer cancel()

		if err := f.q.InsertMetricEvents(flushCtx, batch); err != nil {
			f.logger.Error("worker: metric flush failed", "count", len(batch), "error", err)
		} else {
			f.logger.Debug("worker: metrics flushed", "count", len(batch))
		}
		batch = batch[:0]
	}

	for {
		select {
		case e := <-f.events:
			batch = append(batch, e)
			if len(batch) >= f.cfg.BatchSize {
				flush(ctx)
			}

		case <-ticker.C:
			flush(ctx)
			if d := f.droppedCount(); d > 0 {
				f.logger.Warn("worker: metric events dropped since start", "dropped", d)
			}

		case <-ctx.Done():
			// Drain: collect everything buffered, then write once with a
			// fresh context — ctx is already cancelled.
			for {
				select {
				case e := <-f.events:
					batch = append(batch, e)
					continue
				default:
				}
				break
			}
			flush(context.Background())
			f.logger.Info("worker: flusher stopped")
			return
		}
	}
}

// Wait blocks until Start has returned. Call after cancelling its context.
func (f *Flusher) Wait() {
	f.wg.Wait()
}

func (f *Flusher) droppedCount() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

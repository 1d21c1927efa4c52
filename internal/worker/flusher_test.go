package worker_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/printloom/storefront-backend/internal/store"
	"github.com/printloom/storefront-backend/internal/worker"
)

// ─── STUBS ────────────────────────────────────────────────────────────────────

// stubQuerier records InsertMetricEvents batches.
type stubQuerier struct {
	store.Querier // embedded to panic on unimplemented methods

	mu      sync.Mutex
	batches [][]store.MetricEvent
}

func (q *stubQuerier) InsertMetricEvents(_ context.Context, events []store.MetricEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := make([]store.MetricEvent, len(events))
	copy(batch, events)
	q.batches = append(q.batches, batch)
	return nil
}

func (q *stubQuerier) totalEvents() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, b := range q.batches {
		n += len(b)
	}
	return n
}

func (q *stubQuerier) batchCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.batches)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ─── Flusher ─────────────────────────────────────────────────────────────────

func TestFlusher_DrainsBufferOnShutdown(t *testing.T) {
	q := &stubQuerier{}
	f := worker.NewFlusher(q, worker.FlusherConfig{
		Interval:  time.Hour, // ticker never fires during the test
		BatchSize: 100,
	}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go f.Start(ctx)

	for i := 0; i < 7; i++ {
		f.Record(store.NewMetricEvent("velvet-prints", "page_view", "/shop"))
	}

	cancel()
	f.Wait()

	if got := q.totalEvents(); got != 7 {
		t.Errorf("expected 7 events flushed on shutdown, got %d", got)
	}
}

func TestFlusher_WaitObservesDrainBeforeStartIsScheduled(t *testing.T) {
	// Shutdown can fire before the Start goroutine gets its first slice of
	// CPU. Wait must still block until the drain has written the buffer, so
	// the pending work is registered at construction, not inside Start.
	q := &stubQuerier{}
	f := worker.NewFlusher(q, worker.FlusherConfig{
		Interval:  time.Hour,
		BatchSize: 100,
	}, discardLogger())

	for i := 0; i < 4; i++ {
		f.Record(store.NewMetricEvent("velvet-prints", "page_view", "/shop"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already cancelled when Start first runs
	go f.Start(ctx)
	f.Wait()

	if got := q.totalEvents(); got != 4 {
		t.Errorf("expected 4 events drained, got %d", got)
	}
}

func TestFlusher_FlushesWhenBatchFills(t *testing.T) {
	q := &stubQuerier{}
	f := worker.NewFlusher(q, worker.FlusherConfig{
		Interval:  time.Hour,
		BatchSize: 3,
	}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Start(ctx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		f.Record(store.NewMetricEvent("velvet-prints", "page_view", "/"))
	}

	// The batch-full flush happens without any ticker tick.
	deadline := time.After(2 * time.Second)
	for q.totalEvents() < 3 {
		select {
		case <-deadline:
			t.Fatalf("batch-full flush never happened, flushed %d", q.totalEvents())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestFlusher_FlushesOnTicker(t *testing.T) {
	q := &stubQuerier{}
	f := worker.NewFlusher(q, worker.FlusherConfig{
		Interval:  20 * time.Millisecond,
		BatchSize: 1000,
	}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go f.Start(ctx)

	f.Record(store.NewMetricEvent("velvet-prints", "order_created", ""))

	deadline := time.After(2 * time.Second)
	for q.totalEvents() < 1 {
		select {
		case <-deadline:
			t.Fatal("ticker flush never happened")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	f.Wait()
}

func TestFlusher_EmptyBufferWritesNothing(t *testing.T) {
	q := &stubQuerier{}
	f := worker.NewFlusher(q, worker.FlusherConfig{
		Interval:  10 * time.Millisecond,
		BatchSize: 10,
	}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go f.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	cancel()
	f.Wait()

	if got := q.batchCount(); got != 0 {
		t.Errorf("expected no writes for an empty buffer, got %d batches", got)
	}
}

func TestFlusher_RecordNeverBlocks(t *testing.T) {
	// No Start loop consuming; flood well past the channel buffer. Record
	// must return immediately every time.
	q := &stubQuerier{}
	f := worker.NewFlusher(q, worker.FlusherConfig{
		Interval:  time.Hour,
		BatchSize: 2,
	}, discardLogger())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			f.Record(store.NewMetricEvent("velvet-prints", "page_view", "/"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked with a full buffer")
	}
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MetricEvent is one analytics event: a page view, an order creation, or
// anything else the storefront reports. Events are written in batches by the
// worker flusher, never one at a time from a request.
type MetricEvent struct {
	ID         uuid.UUID
	StoreID    string
	Kind       string // e.g. "page_view", "order_created"
	Path       sql.NullString
	OccurredAt time.Time
}

// NewMetricEvent builds an event stamped now. Path may be empty.
func NewMetricEvent(storeID, kind, path string) MetricEvent {
	return MetricEvent{
		ID:         uuid.New(),
		StoreID:    storeID,
		Kind:       kind,
		Path:       sql.NullString{String: path, Valid: path != ""},
		OccurredAt: time.Now().UTC(),
	}
}

// InsertMetricEvents bulk-inserts a batch using COPY, which keeps the flush
// cheap even when a burst of traffic fills the buffer.
func (s *Store) InsertMetricEvents(ctx context.Context, events []MetricEvent) error {
	if len(events) == 0 {
		return nil
	}

	return s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("metric_events",
			"id", "store_id", "kind", "path", "occurred_at"))
		if err != nil {
			return fmt.Errorf("store: prepare copy: %w", err)
		}

		for _, e := range events {
			if _, err := stmt.ExecContext(ctx, e.ID, e.StoreID, e.Kind, e.Path, e.OccurredAt); err != nil {
				_ = stmt.Close()
				return fmt.Errorf("store: copy metric event: %w", err)
			}
		}

		// Final empty Exec flushes the COPY buffer.
		if _, err := stmt.ExecContext(ctx); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("store: flush copy: %w", err)
		}
		return stmt.Close()
	})
}

// ListMetricEvents returns the most recent events for a store.
func (s *Store) ListMetricEvents(ctx context.Context, storeID string, limit int) ([]MetricEvent, error) {
	rows, err := s.pool.QueryContext(ctx, `
		SELECT id, store_id, kind, path, occurred_at
		FROM metric_events
		WHERE store_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2`, storeID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list metric events: %w", err)
	}
	defer rows.Close()

	var events []MetricEvent
	for rows.Next() {
		var e MetricEvent
		if err := rows.Scan(&e.ID, &e.StoreID, &e.Kind, &e.Path, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("store: scan metric event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

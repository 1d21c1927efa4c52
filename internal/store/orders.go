package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// Order is one customer purchase. Payload is the raw order snapshot (items,
// address, totals) exactly as the storefront submitted it — kept as JSONB so
// the confirmation email can be re-sent from the stored record.
type Order struct {
	ID              uuid.UUID
	StoreID         string
	Email           string
	Status          string // "created" | "submitted" | "failed"
	TotalPrice      int64  // minor currency units
	Currency        string
	Payload         pqtype.NullRawMessage
	PrintifyOrderID sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateOrderParams groups the fields written when an order arrives.
type CreateOrderParams struct {
	StoreID    string
	Email      string
	TotalPrice int64
	Currency   string
	Payload    json.RawMessage
}

const orderColumns = "id, store_id, email, status, total_price, currency, payload, printify_order_id, created_at, updated_at"

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.StoreID, &o.Email, &o.Status, &o.TotalPrice,
		&o.Currency, &o.Payload, &o.PrintifyOrderID, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// CreateOrder inserts the order and its "order_created" metric event in one
// serializable transaction, so the metrics ledger never disagrees with the
// orders table about how many orders exist.
func (s *Store) CreateOrder(ctx context.Context, p CreateOrderParams) (Order, error) {
	var order Order

	err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		order, err = scanOrder(tx.QueryRowContext(ctx, `
			INSERT INTO orders (id, store_id, email, status, total_price, currency, payload)
			VALUES ($1, $2, $3, 'created', $4, $5, $6)
			RETURNING `+orderColumns,
			uuid.New(), p.StoreID, p.Email, p.TotalPrice, p.Currency,
			pqtype.NullRawMessage{RawMessage: p.Payload, Valid: len(p.Payload) > 0},
		))
		if err != nil {
			return fmt.Errorf("CreateOrder: insert order: %w", err)
		}

		e := NewMetricEvent(p.StoreID, "order_created", "")
		_, err = tx.ExecContext(ctx, `
			INSERT INTO metric_events (id, store_id, kind, path, occurred_at)
			VALUES ($1, $2, $3, $4, $5)`,
			e.ID, e.StoreID, e.Kind, e.Path, e.OccurredAt)
		if err != nil {
			return fmt.Errorf("CreateOrder: insert metric: %w", err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

// GetOrderByID fetches one order.
func (s *Store) GetOrderByID(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := scanOrder(s.pool.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return Order{}, notFound(err)
	}
	return o, nil
}

// ListOrdersByStore returns a store's most recent orders.
func (s *Store) ListOrdersByStore(ctx context.Context, storeID string, limit int) ([]Order, error) {
	rows, err := s.pool.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE store_id = $1 ORDER BY created_at DESC LIMIT $2`,
		storeID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus moves an order through created → submitted/failed and
// records the Printify order id when fulfillment accepted it.
func (s *Store) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (Order, error) {
	o, err := scanOrder(s.pool.QueryRowContext(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		id, status))
	if err != nil {
		return Order{}, notFound(err)
	}
	return o, nil
}

// SetOrderPrintifyID stores the fulfillment provider's order id.
func (s *Store) SetOrderPrintifyID(ctx context.Context, id uuid.UUID, printifyID string) (Order, error) {
	o, err := scanOrder(s.pool.QueryRowContext(ctx, `
		UPDATE orders SET printify_order_id = $2, status = 'submitted', updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		id, sql.NullString{String: printifyID, Valid: printifyID != ""}))
	if err != nil {
		return Order{}, notFound(err)
	}
	return o, nil
}

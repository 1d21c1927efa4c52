// Package store is the Postgres persistence layer: users, blogs, articles,
// metric events, and orders. Every operation is a single query except
// CreateOrder, which atomically records the order and its creation metric.
//
// Dependency rule: store imports nothing from api, email, stripe, printify,
// or worker.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned for any lookup that matches no row.
var ErrNotFound = errors.New("store: not found")

// Querier is the interface handlers and the worker depend on. *Store is the
// production implementation; tests inject in-memory stubs.
type Querier interface {
	// Users
	CreateUser(ctx context.Context, p CreateUserParams) (User, error)
	GetUserByEmail(ctx context.Context, storeID, email string) (User, error)

	// Blogs
	CreateBlog(ctx context.Context, p CreateBlogParams) (Blog, error)
	GetBlog(ctx context.Context, id uuid.UUID) (Blog, error)
	ListBlogs(ctx context.Context, storeID string) ([]Blog, error)
	UpdateBlog(ctx context.Context, p UpdateBlogParams) (Blog, error)
	DeleteBlog(ctx context.Context, id uuid.UUID) error

	// Articles
	CreateArticle(ctx context.Context, p CreateArticleParams) (Article, error)
	GetArticle(ctx context.Context, id uuid.UUID) (Article, error)
	ListArticlesByBlog(ctx context.Context, blogID uuid.UUID) ([]Article, error)
	UpdateArticle(ctx context.Context, p UpdateArticleParams) (Article, error)
	DeleteArticle(ctx context.Context, id uuid.UUID) error

	// Metrics
	InsertMetricEvents(ctx context.Context, events []MetricEvent) error
	ListMetricEvents(ctx context.Context, storeID string, limit int) ([]MetricEvent, error)

	// Orders
	CreateOrder(ctx context.Context, p CreateOrderParams) (Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (Order, error)
	ListOrdersByStore(ctx context.Context, storeID string, limit int) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (Order, error)
	SetOrderPrintifyID(ctx context.Context, id uuid.UUID, printifyID string) (Order, error)
}

// Store holds the connection pool. Operation files (users.go, cms.go,
// metrics.go, orders.go) attach methods to this type.
type Store struct {
	pool *sql.DB
}

// New creates a Store from a live connection pool. The pool must already be
// open and verified (via PingContext) before calling New.
func New(pool *sql.DB) *Store {
	return &Store{pool: pool}
}

// withTx begins a transaction, passes it to fn, and commits on success or
// rolls back on any error (including panics).
//
// Serializable isolation is the default because the multi-step writes here
// follow a read-then-write pattern.
func (s *Store) withTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}

	// Roll back on panic so the connection is never left in a broken state.
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p) // re-panic after rollback
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("store: fn error: %w; rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}

// notFound converts sql.ErrNoRows into the package sentinel.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

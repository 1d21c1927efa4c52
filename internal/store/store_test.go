package store_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/printloom/storefront-backend/internal/store"
)

// ─── TEST INFRASTRUCTURE ──────────────────────────────────────────────────────

// openTestDB returns a *sql.DB from DATABASE_URL. Skips if the env var is
// not set so the test suite still passes in CI without a Postgres instance.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set — skipping store integration tests")
	}
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if err := pool.PingContext(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("ping: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

// testStoreID returns a per-test tenant id so parallel runs never collide,
// and registers cleanup of every row written under it.
func testStoreID(t *testing.T, pool *sql.DB) string {
	t.Helper()
	id := fmt.Sprintf("test-store-%s", uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx := context.Background()
		for _, table := range []string{"orders", "metric_events", "blogs", "users"} {
			_, _ = pool.ExecContext(ctx, "DELETE FROM "+table+" WHERE store_id=$1", id)
		}
	})
	return id
}

// ─── USERS ────────────────────────────────────────────────────────────────────

func TestCreateUser_AndGetByEmail(t *testing.T) {
	pool := openTestDB(t)
	st := store.New(pool)
	ctx := context.Background()
	storeID := testStoreID(t, pool)

	created, err := st.CreateUser(ctx, store.CreateUserParams{
		StoreID:      storeID,
		Email:        "admin@example.com",
		PasswordHash: "$2a$10$fakehash",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	fetched, err := st.GetUserByEmail(ctx, storeID, "admin@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if fetched.ID != created.ID {
		t.Errorf("fetched id %s, want %s", fetched.ID, created.ID)
	}

	// Same email in a different store is not visible.
	if _, err := st.GetUserByEmail(ctx, storeID+"-other", "admin@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("cross-store lookup: expected ErrNotFound, got %v", err)
	}
}

func TestCreateUser_DuplicateEmailSameStoreFails(t *testing.T) {
	pool := openTestDB(t)
	st := store.New(pool)
	ctx := context.Background()
	storeID := testStoreID(t, pool)

	p := store.CreateUserParams{StoreID: storeID, Email: "dup@example.com", PasswordHash: "h"}
	if _, err := st.CreateUser(ctx, p); err != nil {
		t.Fatalf("first CreateUser: %v", err)
	}
	if _, err := st.CreateUser(ctx, p); err == nil {
		t.Error("expected unique violation for duplicate (store_id, email)")
	}
}

// ─── BLOGS & ARTICLES ─────────────────────────────────────────────────────────

func TestBlogAndArticleLifecycle(t *testing.T) {
	pool := openTestDB(t)
	st := store.New(pool)
	ctx := context.Background()
	storeID := testStoreID(t, pool)

	blog, err := st.CreateBlog(ctx, store.CreateBlogParams{
		StoreID: storeID, Title: "Journal", Slug: "journal",
	})
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}

	article, err := st.CreateArticle(ctx, store.CreateArticleParams{
		BlogID: blog.ID, Title: "Hello", Slug: "hello", Body: "First.", Published: true,
	})
	if err != nil {
		t.Fatalf("CreateArticle: %v", err)
	}

	articles, err := st.ListArticlesByBlog(ctx, blog.ID)
	if err != nil {
		t.Fatalf("ListArticlesByBlog: %v", err)
	}
	if len(articles) != 1 || articles[0].ID != article.ID {
		t.Fatalf("expected the created article, got %+v", articles)
	}

	updated, err := st.UpdateArticle(ctx, store.UpdateArticleParams{
		ID: article.ID, Title: "Hello again", Slug: "hello", Body: "Edited.", Published: false,
	})
	if err != nil {
		t.Fatalf("UpdateArticle: %v", err)
	}
	if updated.Title != "Hello again" || updated.Published {
		t.Errorf("update not applied: %+v", updated)
	}

	// Deleting the blog cascades to its articles.
	if err := st.DeleteBlog(ctx, blog.ID); err != nil {
		t.Fatalf("DeleteBlog: %v", err)
	}
	if _, err := st.GetArticle(ctx, article.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected cascade delete of article, got %v", err)
	}
}

func TestDeleteBlog_UnknownIDReturnsNotFound(t *testing.T) {
	pool := openTestDB(t)
	st := store.New(pool)

	if err := st.DeleteBlog(context.Background(), uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ─── METRICS ──────────────────────────────────────────────────────────────────

func TestInsertMetricEvents_BatchRoundTrip(t *testing.T) {
	pool := openTestDB(t)
	st := store.New(pool)
	ctx := context.Background()
	storeID := testStoreID(t, pool)

	batch := []store.MetricEvent{
		store.NewMetricEvent(storeID, "page_view", "/shop"),
		store.NewMetricEvent(storeID, "page_view", "/products/42"),
		store.NewMetricEvent(storeID, "add_to_cart", ""),
	}
	if err := st.InsertMetricEvents(ctx, batch); err != nil {
		t.Fatalf("InsertMetricEvents: %v", err)
	}

	events, err := st.ListMetricEvents(ctx, storeID, 10)
	if err != nil {
		t.Fatalf("ListMetricEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
}

func TestInsertMetricEvents_EmptyBatchIsNoop(t *testing.T) {
	pool := openTestDB(t)
	st := store.New(pool)

	if err := st.InsertMetricEvents(context.Background(), nil); err != nil {
		t.Errorf("empty batch: %v", err)
	}
}

// ─── ORDERS ───────────────────────────────────────────────────────────────────

func TestCreateOrder_WritesOrderAndMetricAtomically(t *testing.T) {
	pool := openTestDB(t)
	st := store.New(pool)
	ctx := context.Background()
	storeID := testStoreID(t, pool)

	payload, _ := json.Marshal(map[string]any{"total_price": 2500, "currency": "USD"})
	order, err := st.CreateOrder(ctx, store.CreateOrderParams{
		StoreID:    storeID,
		Email:      "ada@example.com",
		TotalPrice: 2500,
		Currency:   "USD",
		Payload:    payload,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.Status != "created" {
		t.Errorf("status: got %q, want created", order.Status)
	}
	if !order.Payload.Valid {
		t.Error("payload should be stored")
	}

	events, err := st.ListMetricEvents(ctx, storeID, 10)
	if err != nil {
		t.Fatalf("ListMetricEvents: %v", err)
	}
	if len(events) != 1 || events[0].Kind != "order_created" {
		t.Errorf("expected one order_created event, got %+v", events)
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	pool := openTestDB(t)
	st := store.New(pool)
	ctx := context.Background()
	storeID := testStoreID(t, pool)

	order, err := st.CreateOrder(ctx, store.CreateOrderParams{
		StoreID: storeID, Email: "ada@example.com", TotalPrice: 100, Currency: "USD",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	submitted, err := st.SetOrderPrintifyID(ctx, order.ID, "pfy_123")
	if err != nil {
		t.Fatalf("SetOrderPrintifyID: %v", err)
	}
	if submitted.Status != "submitted" || submitted.PrintifyOrderID.String != "pfy_123" {
		t.Errorf("after submit: %+v", submitted)
	}

	failed, err := st.UpdateOrderStatus(ctx, order.ID, "failed")
	if err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	if failed.Status != "failed" {
		t.Errorf("status: got %q, want failed", failed.Status)
	}

	fetched, err := st.GetOrderByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrderByID: %v", err)
	}
	if fetched.Status != "failed" {
		t.Errorf("fetched status: got %q", fetched.Status)
	}
}

func TestGetOrderByID_Unknown(t *testing.T) {
	pool := openTestDB(t)
	st := store.New(pool)

	if _, err := st.GetOrderByID(context.Background(), uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/printloom/storefront-backend/internal/api"
	"github.com/printloom/storefront-backend/internal/auth"
	"github.com/printloom/storefront-backend/internal/config"
	"github.com/printloom/storefront-backend/internal/email"
	"github.com/printloom/storefront-backend/internal/printify"
	"github.com/printloom/storefront-backend/internal/store"
	stripeinternal "github.com/printloom/storefront-backend/internal/stripe"
	"github.com/printloom/storefront-backend/internal/worker"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port)

	// ── Tenant registry ───────────────────────────────────────────────────────
	registry, err := config.LoadRegistry(cfg.StoresFile)
	if err != nil {
		return fmt.Errorf("stores: %w", err)
	}
	logger.Info("stores loaded", "stores", registry.StoreIDs())

	// ── Database ──────────────────────────────────────────────────────────────
	pool, err := openDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	st := store.New(pool)

	// ── Per-store resolvers ───────────────────────────────────────────────────
	// Closures over the registry, so a SIGHUP reload is visible on the next
	// operation without any service reconstruction.
	emailResolver := func(storeID string) (email.StoreEmailConfig, bool) {
		sc, ok := registry.Store(storeID)
		if !ok {
			return email.StoreEmailConfig{}, false
		}
		return email.StoreEmailConfig{
			User:        sc.SMTPUser,
			Pass:        sc.SMTPPass,
			StoreName:   sc.Name,
			FrontendURL: sc.FrontendURL,
			Locale:      sc.Locale,
		}, true
	}
	stripeResolver := func(storeID string) (string, bool) {
		sc, ok := registry.Store(storeID)
		if !ok || sc.StripeSecretKey == "" {
			return "", false
		}
		return sc.StripeSecretKey, true
	}
	printifyResolver := func(storeID string) (printify.Credentials, bool) {
		sc, ok := registry.Store(storeID)
		if !ok || sc.PrintifyToken == "" {
			return printify.Credentials{}, false
		}
		return printify.Credentials{Token: sc.PrintifyToken, ShopID: sc.PrintifyShopID}, true
	}

	// ── Services ──────────────────────────────────────────────────────────────
	mailer := email.NewService(emailResolver, nil, logger) // nil factory = real SMTP
	stripeClient := stripeinternal.NewService(stripeResolver, logger)
	printifyClient := printify.NewClient(printifyResolver)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	// ── Metrics flusher ───────────────────────────────────────────────────────
	flusher := worker.NewFlusher(st, worker.FlusherConfig{
		Interval:  cfg.FlushInterval,
		BatchSize: cfg.FlushBatch,
	}, logger)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(
		st,
		registry,
		stripeClient,
		printifyClient,
		mailer,
		flusher,
		tokens,
		api.Config{Env: cfg.Env},
		logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // order submission waits on Printify
		IdleTimeout:  120 * time.Second,
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	// Root context cancelled by OS signal. Flusher and HTTP server both
	// respect it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// SIGHUP re-reads the stores file so tenant secrets rotate live.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := registry.Reload(); err != nil {
				logger.Error("stores reload failed", "error", err)
				continue
			}
			logger.Info("stores reloaded", "stores", registry.StoreIDs())
		}
	}()

	// Start the metrics flusher. It blocks until ctx is done, then drains.
	go flusher.Start(ctx)

	// Start the HTTP server in a background goroutine.
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until either a signal arrives or the server dies unexpectedly.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	// Give in-flight HTTP requests up to 20 seconds to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// The flusher drains its buffer when ctx is cancelled; wait for it so no
	// buffered metric events are lost on shutdown.
	flusher.Wait()
	logger.Info("shutdown complete")
	return nil
}

// openDB opens the connection pool and verifies it is reachable before the
// server starts taking traffic.
func openDB(dsn string) (*sql.DB, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	// Tune the connection pool.
	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(5 * time.Minute)
	pool.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}

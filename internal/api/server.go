// Package api implements the HTTP layer for the storefront backend.
// Handlers are methods on *Server. Each handler file is responsible for one
// resource group and only imports the dependencies it actually uses.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/printloom/storefront-backend/internal/auth"
	"github.com/printloom/storefront-backend/internal/config"
	"github.com/printloom/storefront-backend/internal/email"
	"github.com/printloom/storefront-backend/internal/printify"
	"github.com/printloom/storefront-backend/internal/store"
	stripeinternal "github.com/printloom/storefront-backend/internal/stripe"
	"github.com/printloom/storefront-backend/internal/worker"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	// q handles all database reads and writes.
	q store.Querier

	// registry resolves tenant store ids; unknown stores 404 before handlers run.
	registry *config.Registry

	// stripe creates payment intents on each store's Stripe account.
	stripe stripeinternal.Client

	// printify submits fulfillment orders.
	printify printify.Client

	// mailer sends order-confirmation email.
	mailer email.Sender

	// metrics buffers analytics events for the background flusher.
	metrics worker.Recorder

	// tokens signs and verifies CMS session tokens.
	tokens *auth.TokenIssuer

	cfg    Config
	logger *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.ListenAndServe.
func NewServer(
	q store.Querier,
	registry *config.Registry,
	stripeClient stripeinternal.Client,
	printifyClient printify.Client,
	mailer email.Sender,
	metrics worker.Recorder,
	tokens *auth.TokenIssuer,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	s := &Server{
		q:        q,
		registry: registry,
		stripe:   stripeClient,
		printify: printifyClient,
		mailer:   mailer,
		metrics:  metrics,
		tokens:   tokens,
		cfg:      cfg,
		logger:   logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(30 * time.Second))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// ── API v1 ────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {

		// CMS account endpoints — store id comes in the body, validated there.
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		// Store-scoped routes — the store must exist in the registry.
		r.Route("/stores/{storeID}", func(r chi.Router) {
			r.Use(s.requireStore)

			// Public storefront surface.
			r.Get("/blogs", s.handleListBlogs)
			r.Get("/blogs/{blogID}", s.handleGetBlog)
			r.Get("/blogs/{blogID}/articles", s.handleListArticles)
			r.Get("/articles/{articleID}", s.handleGetArticle)
			r.Post("/metrics", s.handleRecordMetric)
			r.Post("/orders", s.handleCreateOrder)
			r.Post("/payment-intent", s.handleCreatePaymentIntent)

			// CMS surface — requires a session token scoped to this store.
			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/blogs", s.handleCreateBlog)
				r.Put("/blogs/{blogID}", s.handleUpdateBlog)
				r.Delete("/blogs/{blogID}", s.handleDeleteBlog)
				r.Post("/blogs/{blogID}/articles", s.handleCreateArticle)
				r.Put("/articles/{articleID}", s.handleUpdateArticle)
				r.Delete("/articles/{articleID}", s.handleDeleteArticle)
				r.Get("/metrics", s.handleListMetrics)
				r.Get("/orders", s.handleListOrders)
			})
		})
	})

	return r
}

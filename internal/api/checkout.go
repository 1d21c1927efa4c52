package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	stripeinternal "github.com/printloom/storefront-backend/internal/stripe"
)

// ─── POST /api/stores/:storeID/payment-intent ────────────────────────────────

type createPaymentIntentRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

type createPaymentIntentResponse struct {
	// ClientSecret is the Stripe PaymentIntent client_secret. The browser
	// passes this to Stripe.js to render the payment UI and confirm the charge.
	ClientSecret string `json:"client_secret"`
}

// handleCreatePaymentIntent creates a payment intent on the store's Stripe
// account and returns the client_secret to the browser.
func (s *Server) handleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")

	var req createPaymentIntentRequest
	if !decode(w, r, &req) {
		return
	}

	if req.AmountCents <= 0 {
		respondErr(w, http.StatusBadRequest, "amount_cents must be positive")
		return
	}
	if req.Currency == "" {
		req.Currency = "usd"
	}

	clientSecret, err := s.stripe.CreatePaymentIntent(r.Context(), storeID, req.AmountCents, req.Currency)
	if err != nil {
		if errors.Is(err, stripeinternal.ErrStoreNotConfigured) {
			respondErr(w, http.StatusConflict, "store has no payment configuration")
			return
		}
		s.respondInternalErr(w, r, fmt.Errorf("create payment intent: %w", err))
		return
	}

	respond(w, http.StatusOK, createPaymentIntentResponse{ClientSecret: clientSecret})
}

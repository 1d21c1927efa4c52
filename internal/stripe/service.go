// Package stripe creates payment intents for tenant stores through the
// official stripe-go SDK. Each store has its own Stripe account; secrets are
// resolved per call so key rotation needs no restart.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// SecretResolver maps a store id to its Stripe secret key. The boolean is
// false when the store is unknown or has no key configured.
type SecretResolver func(storeID string) (string, bool)

// ErrStoreNotConfigured is returned when the resolver has no secret key for
// the requested store.
var ErrStoreNotConfigured = errors.New("stripe: store has no secret key configured")

// Client is the interface the api package uses for payment calls.
// The concrete implementation wraps stripe-go; tests inject a stub.
type Client interface {
	// CreatePaymentIntent creates a new payment intent on the store's Stripe
	// account and returns its client_secret. Provider errors are logged here
	// and then propagated unmodified in the chain.
	CreatePaymentIntent(ctx context.Context, storeID string, amountCents int64, currency string) (string, error)
}

// Service is the stripe-go backed Client.
type Service struct {
	resolve SecretResolver
	logger  *slog.Logger
}

// NewService constructs the payment service.
func NewService(resolve SecretResolver, logger *slog.Logger) *Service {
	return &Service{resolve: resolve, logger: logger}
}

// clientFor builds a per-store SDK client. A dedicated client.API instance
// per call avoids mutating the SDK's package-global key, which is unsafe when
// several tenants share one process.
func (s *Service) clientFor(storeID string) (*client.API, error) {
	key, ok := s.resolve(storeID)
	if !ok || key == "" {
		return nil, fmt.Errorf("stripe: store %q: %w", storeID, ErrStoreNotConfigured)
	}
	return client.New(key, nil), nil
}

// CreatePaymentIntent implements Client. No retries and no idempotency key:
// the call is attempted exactly once and the caller owns failure handling.
func (s *Service) CreatePaymentIntent(ctx context.Context, storeID string, amountCents int64, currency string) (string, error) {
	api, err := s.clientFor(storeID)
	if err != nil {
		return "", err
	}

	params := IntentParams(amountCents, currency)
	params.Context = ctx

	pi, err := api.PaymentIntents.New(params)
	if err != nil {
		s.logger.Error("stripe: create payment intent failed",
			"store_id", storeID, "amount_cents", amountCents, "currency", currency, "error", err)
		return "", fmt.Errorf("stripe: create payment intent: %w", err)
	}

	return pi.ClientSecret, nil
}

// IntentParams builds the payment intent parameters. Card is the only
// payment method the storefront checkout renders.
func IntentParams(amountCents int64, currency string) *stripe.PaymentIntentParams {
	return &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
}

package stripe_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	stripeinternal "github.com/printloom/storefront-backend/internal/stripe"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ─── CreatePaymentIntent — resolution ────────────────────────────────────────

func TestCreatePaymentIntent_UnknownStore(t *testing.T) {
	svc := stripeinternal.NewService(func(string) (string, bool) {
		return "", false
	}, discardLogger())

	_, err := svc.CreatePaymentIntent(context.Background(), "ghost-store", 2500, "usd")
	if !errors.Is(err, stripeinternal.ErrStoreNotConfigured) {
		t.Errorf("expected ErrStoreNotConfigured, got %v", err)
	}
}

func TestCreatePaymentIntent_EmptyKeyTreatedAsUnconfigured(t *testing.T) {
	svc := stripeinternal.NewService(func(string) (string, bool) {
		return "", true
	}, discardLogger())

	_, err := svc.CreatePaymentIntent(context.Background(), "velvet-prints", 2500, "usd")
	if !errors.Is(err, stripeinternal.ErrStoreNotConfigured) {
		t.Errorf("expected ErrStoreNotConfigured, got %v", err)
	}
}

// ─── IntentParams ────────────────────────────────────────────────────────────

func TestIntentParams(t *testing.T) {
	params := stripeinternal.IntentParams(2500, "usd")

	if params.Amount == nil || *params.Amount != 2500 {
		t.Errorf("Amount = %v, want 2500", params.Amount)
	}
	if params.Currency == nil || *params.Currency != "usd" {
		t.Errorf("Currency = %v, want usd", params.Currency)
	}
	if len(params.PaymentMethodTypes) != 1 || *params.PaymentMethodTypes[0] != "card" {
		t.Errorf("PaymentMethodTypes = %v, want [card]", params.PaymentMethodTypes)
	}
}

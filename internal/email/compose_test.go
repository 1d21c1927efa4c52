package email_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/printloom/storefront-backend/internal/email"
)

// ─── TEST INFRASTRUCTURE ──────────────────────────────────────────────────────

func testStoreConfig() email.StoreEmailConfig {
	return email.StoreEmailConfig{
		User:        "orders@velvetprints.com",
		Pass:        "secret",
		StoreName:   "Velvet Prints",
		FrontendURL: "https://velvetprints.com/track",
		Locale:      "en-US",
	}
}

func testPayload() email.OrderConfirmationPayload {
	return email.OrderConfirmationPayload{
		Address: email.Address{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Country:   "United States",
			Region:    "CA",
			City:      "San Francisco",
			Address1:  "1 Analytical Way",
			Zip:       "94103",
		},
		Items: []email.OrderItem{
			{Title: "Botanical Print", VariantLabel: "A3 / Matte", Quantity: 2, Price: 1250},
			{Title: "City Map Poster", VariantLabel: "A2 / Glossy", Quantity: 1, Price: 3000},
		},
		ShippingMethod: email.ShippingMethod{Code: 1},
		TotalPrice:     5500,
		Currency:       "USD",
	}
}

// ─── ComposeOrderConfirmation ─────────────────────────────────────────────────

func TestCompose_Deterministic(t *testing.T) {
	cfg := testStoreConfig()
	p := testPayload()

	first, err := email.ComposeOrderConfirmation(cfg, "ada@example.com", "ORD-1001", p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := email.ComposeOrderConfirmation(cfg, "ada@example.com", "ORD-1001", p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("identical inputs must produce byte-identical messages")
	}
}

func TestCompose_Envelope(t *testing.T) {
	msg, err := email.ComposeOrderConfirmation(testStoreConfig(), "ada@example.com", "ORD-1001", testPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := `"Velvet Prints Orders" <orders@velvetprints.com>`; msg.From != want {
		t.Errorf("From = %q, want %q", msg.From, want)
	}
	if msg.To != "ada@example.com" {
		t.Errorf("To = %q", msg.To)
	}
	if want := "Velvet Prints Order Confirmation - ORD-1001"; msg.Subject != want {
		t.Errorf("Subject = %q, want %q", msg.Subject, want)
	}
}

func TestCompose_MissingUser(t *testing.T) {
	cfg := testStoreConfig()
	cfg.User = ""
	_, err := email.ComposeOrderConfirmation(cfg, "ada@example.com", "ORD-1001", testPayload())
	if !errors.Is(err, email.ErrMissingUser) {
		t.Errorf("expected ErrMissingUser, got %v", err)
	}
}

func TestCompose_TrackingURLParamOrder(t *testing.T) {
	msg, err := email.ComposeOrderConfirmation(testStoreConfig(), "ada+vip@example.com", "ORD 42", testPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// orderId must come before email, and both values must be query-escaped.
	// The URL appears verbatim in both bodies: the HTML must not entity-escape
	// the parameter separator, or copy-pasted links lose the email parameter.
	want := "https://velvetprints.com/track?orderId=ORD+42&email=ada%2Bvip%40example.com"
	if !strings.Contains(msg.Text, want) {
		t.Errorf("text body missing tracking URL %q\n%s", want, msg.Text)
	}
	if !strings.Contains(msg.HTML, want) {
		t.Errorf("html body missing tracking URL %q", want)
	}
	if strings.Contains(msg.HTML, "orderId=ORD+42&amp;email=") {
		t.Error("tracking URL must not be entity-escaped in the HTML body")
	}
}

func TestCompose_TrackingURLVerbatimInBothBodies(t *testing.T) {
	cfg := testStoreConfig()
	cfg.FrontendURL = "https://shop.example.com"
	msg, err := email.ComposeOrderConfirmation(cfg, "buyer@example.com", "ORD-3", testPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "orderId=ORD-3&email=buyer%40example.com"
	if !strings.Contains(msg.Text, want) {
		t.Errorf("text body missing %q", want)
	}
	if !strings.Contains(msg.HTML, want) {
		t.Errorf("html body missing %q", want)
	}
}

func TestCompose_InvalidFrontendURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no scheme", "velvetprints.com/track"},
		{"scheme only", "https://"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testStoreConfig()
			cfg.FrontendURL = tt.url
			_, err := email.ComposeOrderConfirmation(cfg, "ada@example.com", "ORD-1001", testPayload())
			if err == nil {
				t.Error("expected error for invalid frontend url")
			}
		})
	}
}

func TestCompose_BothBodiesCarryOrderFacts(t *testing.T) {
	msg, err := email.ComposeOrderConfirmation(testStoreConfig(), "ada@example.com", "ORD-1001", testPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"ORD-1001",
		"Botanical Print",
		"City Map Poster",
		"Standard",
		"$55.00",  // order total
		"$12.50",  // unit price
		"$25.00",  // line total for quantity 2
		"$30.00",
		"Ada Lovelace",
		"1 Analytical Way",
		"San Francisco, CA 94103",
	} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text body missing %q", want)
		}
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("html body missing %q", want)
		}
	}
}

func TestCompose_OptionalAddressLinesOmitted(t *testing.T) {
	// No phone, no address2 in the default payload.
	msg, err := email.ComposeOrderConfirmation(testStoreConfig(), "ada@example.com", "ORD-1001", testPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(msg.Text, "\n\n\n") {
		t.Error("text body has a blank address line for an absent optional field")
	}

	// With them present, both appear.
	p := testPayload()
	p.Address.Address2 = "Suite 200"
	p.Address.Phone = "+1 555 0100"
	msg, err = email.ComposeOrderConfirmation(testStoreConfig(), "ada@example.com", "ORD-1001", p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Suite 200", "+1 555 0100"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text body missing optional line %q", want)
		}
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("html body missing optional line %q", want)
		}
	}
}

func TestCompose_TotalPriceTrustedAsGiven(t *testing.T) {
	p := testPayload()
	p.TotalPrice = 9999 // deliberately not the item sum
	msg, err := email.ComposeOrderConfirmation(testStoreConfig(), "ada@example.com", "ORD-1001", p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(msg.Text, "$99.99") {
		t.Error("composer must render the given total, not recompute it")
	}
}

// ─── HTML escaping ────────────────────────────────────────────────────────────

func TestCompose_EscapesUserContentInHTML(t *testing.T) {
	p := testPayload()
	p.Items = []email.OrderItem{
		{Title: `<script>alert("x")</script>`, VariantLabel: "Tom & Jerry's", Quantity: 1, Price: 100},
	}
	msg, err := email.ComposeOrderConfirmation(testStoreConfig(), "ada@example.com", "ORD-1001", p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(msg.HTML, "<script>") {
		t.Error("raw script tag leaked into HTML body")
	}
	for _, want := range []string{
		"&lt;script&gt;alert(&quot;x&quot;)&lt;/script&gt;",
		"Tom &amp; Jerry&#39;s",
	} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("html body missing escaped form %q", want)
		}
	}
	// The plain-text body carries the raw value untouched.
	if !strings.Contains(msg.Text, `<script>alert("x")</script>`) {
		t.Error("text body must carry the raw value unescaped")
	}
}

func TestCompose_NoDoubleEscaping(t *testing.T) {
	// A value that already looks like an entity is escaped exactly once:
	// the ampersand becomes &amp; and the rest passes through.
	p := testPayload()
	p.Items = []email.OrderItem{
		{Title: "&lt;b&gt;", VariantLabel: "plain", Quantity: 1, Price: 100},
	}
	msg, err := email.ComposeOrderConfirmation(testStoreConfig(), "ada@example.com", "ORD-1001", p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(msg.HTML, "&amp;lt;b&amp;gt;") {
		t.Error("entity-like input must be escaped exactly once")
	}
	if strings.Contains(msg.HTML, "&amp;amp;") {
		t.Error("output was escaped more than once")
	}
}

func TestCompose_EmptyLocaleDefaultsToEnUS(t *testing.T) {
	cfg := testStoreConfig()
	cfg.Locale = ""
	msg, err := email.ComposeOrderConfirmation(cfg, "ada@example.com", "ORD-1001", testPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(msg.Text, "$55.00") {
		t.Error("empty locale should format as en-US")
	}
}

package email

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ─── ORDER PAYLOAD ───────────────────────────────────────────────────────────

// Address is the shipping destination exactly as the storefront collected it.
// Phone and Address2 are optional; absent values render no line at all.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Country   string `json:"country"`
	Region    string `json:"region"`
	City      string `json:"city"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	Zip       string `json:"zip"`
}

// OrderItem is one purchased line. Price is in minor currency units.
type OrderItem struct {
	Title        string `json:"title"`
	VariantLabel string `json:"variant_label"`
	Quantity     int    `json:"quantity"`
	Price        int64  `json:"price"`
}

// OrderConfirmationPayload is the immutable input to composition. Items keep
// the storefront's ordering. TotalPrice is trusted as given — the composer
// never reconciles it against the item sum (discounts and shipping live in
// the caller's number).
type OrderConfirmationPayload struct {
	Address        Address        `json:"address"`
	Items          []OrderItem    `json:"items"`
	ShippingMethod ShippingMethod `json:"shipping_method"`
	TotalPrice     int64          `json:"total_price"`
	Currency       string         `json:"currency"`
}

// ErrMissingUser is returned when the store's email config has no SMTP user.
// Nothing else is checked or built once this fires.
var ErrMissingUser = errors.New(`email: config missing "user"`)

// ─── COMPOSER ────────────────────────────────────────────────────────────────

// ComposeOrderConfirmation builds the complete order-confirmation message for
// one tenant store. It is pure and deterministic: no clock, no randomness,
// no I/O — identical inputs always produce byte-identical messages, so the
// whole template surface is unit-testable without a mail server.
//
// The text and HTML bodies are each complete on their own; both carry the
// order id, the tracking link, every item, the shipping method, and the
// order total.
func ComposeOrderConfirmation(cfg StoreEmailConfig, to, orderID string, p OrderConfirmationPayload) (Message, error) {
	if cfg.User == "" {
		return Message{}, ErrMissingUser
	}

	tracking, err := trackingURL(cfg.FrontendURL, orderID, to)
	if err != nil {
		return Message{}, err
	}

	locale := cfg.Locale
	if locale == "" {
		locale = "en-US"
	}

	shipping := ShippingMethodLabel(p.ShippingMethod)
	total := FormatMoney(p.TotalPrice, p.Currency, locale)

	return Message{
		// The display name is always quoted, even when it has no characters
		// that force quoting — some receiving MTAs choke on unquoted names
		// containing punctuation, and consistency costs nothing.
		From:    fmt.Sprintf("%q <%s>", cfg.StoreName+" Orders", cfg.User),
		To:      to,
		Subject: fmt.Sprintf("%s Order Confirmation - %s", cfg.StoreName, orderID),
		Text:    textBody(cfg.StoreName, orderID, tracking, shipping, total, locale, p),
		HTML:    htmlBody(cfg.StoreName, orderID, tracking, shipping, total, locale, p),
	}, nil
}

// trackingURL appends the order lookup query to the store's frontend URL.
// Parameter order is fixed (orderId then email) because the storefronts parse
// the raw query positionally in their analytics — url.Values.Encode would
// sort the keys and break that.
func trackingURL(frontendURL, orderID, email string) (string, error) {
	u, err := url.Parse(frontendURL)
	if err != nil {
		return "", fmt.Errorf("email: parse frontend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("email: invalid frontend url %q", frontendURL)
	}
	u.RawQuery = "orderId=" + url.QueryEscape(orderID) + "&email=" + url.QueryEscape(email)
	return u.String(), nil
}

// addressLines renders the shipping address as raw display lines, omitting
// optional fields entirely (no blank lines for a missing address2 or phone).
func addressLines(a Address) []string {
	lines := []string{
		strings.TrimSpace(a.FirstName + " " + a.LastName),
		a.Address1,
	}
	if a.Address2 != "" {
		lines = append(lines, a.Address2)
	}
	lines = append(lines,
		fmt.Sprintf("%s, %s %s", a.City, a.Region, a.Zip),
		a.Country,
	)
	if a.Phone != "" {
		lines = append(lines, a.Phone)
	}
	return lines
}

// ─── PLAIN TEXT BODY ─────────────────────────────────────────────────────────

func textBody(storeName, orderID, tracking, shipping, total, locale string, p OrderConfirmationPayload) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\n", strings.TrimSpace(p.Address.FirstName+" "+p.Address.LastName))
	fmt.Fprintf(&b, "Thank you for your order from %s!\n\n", storeName)
	fmt.Fprintf(&b, "Order ID: %s\n", orderID)
	fmt.Fprintf(&b, "Track your order: %s\n\n", tracking)

	b.WriteString("Shipping address:\n")
	for _, line := range addressLines(p.Address) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	b.WriteString("Items:\n")
	for _, it := range p.Items {
		unit := FormatMoney(it.Price, p.Currency, locale)
		line := FormatMoney(it.Price*int64(it.Quantity), p.Currency, locale)
		fmt.Fprintf(&b, "- %s (%s) x%d @ %s = %s\n", it.Title, it.VariantLabel, it.Quantity, unit, line)
	}
	b.WriteByte('\n')

	fmt.Fprintf(&b, "Shipping method: %s\n", shipping)
	fmt.Fprintf(&b, "Order total: %s\n\n", total)
	fmt.Fprintf(&b, "Thanks for shopping with %s!\n", storeName)

	return b.String()
}

// ─── HTML BODY ───────────────────────────────────────────────────────────────

// htmlBody builds the HTML alternative by string concatenation, matching the
// plain-text body item for item. Every user-supplied value passes through
// escapeHTML exactly once, right before interpolation; static markup is never
// escaped.
func htmlBody(storeName, orderID, tracking, shipping, total, locale string, p OrderConfirmationPayload) string {
	var b strings.Builder

	b.WriteString(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
`)
	fmt.Fprintf(&b, "  <h2 style=\"margin-bottom: 8px;\">Order Confirmation</h2>\n")
	fmt.Fprintf(&b, "  <p>Hi %s,</p>\n",
		escapeHTML(strings.TrimSpace(p.Address.FirstName+" "+p.Address.LastName)))
	fmt.Fprintf(&b, "  <p>Thank you for your order from %s! Your order <strong>%s</strong> has been received and is being prepared.</p>\n",
		escapeHTML(storeName), escapeHTML(orderID))

	// Tracking button plus a copyable fallback URL. The URL is program-built
	// and already query-encoded, so it is inserted raw: entity-escaping it
	// would rewrite the parameter separator as &amp; and break clients that
	// copy the href verbatim. escapeHTML is for raw user fields only.
	fmt.Fprintf(&b, `  <p style="margin: 32px 0;">
    <a href="%s"
       style="background: #0f172a; color: #ffffff; padding: 12px 24px;
              border-radius: 6px; text-decoration: none; font-weight: 600;">
      Track Your Order
    </a>
  </p>
`, tracking)
	fmt.Fprintf(&b, "  <p style=\"color: #6b7280; font-size: 14px;\">If the button above does not work, copy this URL:<br>\n    <a href=\"%s\" style=\"color: #6b7280;\">%s</a></p>\n",
		tracking, tracking)

	b.WriteString("  <h3 style=\"margin-top: 32px;\">Shipping address</h3>\n  <p>")
	for i, line := range addressLines(p.Address) {
		if i > 0 {
			b.WriteString("<br>\n    ")
		}
		b.WriteString(escapeHTML(line))
	}
	b.WriteString("</p>\n")

	b.WriteString(`  <h3 style="margin-top: 32px;">Items</h3>
  <table style="width: 100%; border-collapse: collapse;">
    <tr>
      <th align="left" style="border-bottom: 1px solid #e5e7eb; padding: 8px 4px;">Item</th>
      <th align="left" style="border-bottom: 1px solid #e5e7eb; padding: 8px 4px;">Variant</th>
      <th align="right" style="border-bottom: 1px solid #e5e7eb; padding: 8px 4px;">Qty</th>
      <th align="right" style="border-bottom: 1px solid #e5e7eb; padding: 8px 4px;">Price</th>
      <th align="right" style="border-bottom: 1px solid #e5e7eb; padding: 8px 4px;">Total</th>
    </tr>
`)
	for _, it := range p.Items {
		unit := FormatMoney(it.Price, p.Currency, locale)
		line := FormatMoney(it.Price*int64(it.Quantity), p.Currency, locale)
		fmt.Fprintf(&b, `    <tr>
      <td style="padding: 8px 4px;">%s</td>
      <td style="padding: 8px 4px;">%s</td>
      <td align="right" style="padding: 8px 4px;">%d</td>
      <td align="right" style="padding: 8px 4px;">%s</td>
      <td align="right" style="padding: 8px 4px;">%s</td>
    </tr>
`, escapeHTML(it.Title), escapeHTML(it.VariantLabel), it.Quantity, unit, line)
	}
	b.WriteString("  </table>\n")

	fmt.Fprintf(&b, "  <p style=\"margin-top: 24px;\">Shipping method: %s</p>\n", escapeHTML(shipping))
	fmt.Fprintf(&b, "  <p style=\"font-size: 18px;\"><strong>Order total: %s</strong></p>\n", total)

	b.WriteString("  <hr style=\"border: none; border-top: 1px solid #e5e7eb; margin: 32px 0;\">\n")
	fmt.Fprintf(&b, "  <p style=\"color: #9ca3af; font-size: 12px;\">Thanks for shopping with %s!</p>\n",
		escapeHTML(storeName))
	b.WriteString("</body>\n</html>\n")

	return b.String()
}

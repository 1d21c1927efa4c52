package email

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ─── MONEY ───────────────────────────────────────────────────────────────────

// FormatMoney renders an integer minor-unit amount ("cents") as a localized
// currency string: FormatMoney(2500, "USD", "en-US") == "$25.00".
//
// Grouping, decimal separator, and currency symbol come from x/text so the
// output matches CLDR formatting for the (currency, locale) pair. An
// unparseable locale falls back to en-US; an unknown currency code falls back
// to "<CODE> <amount>".
func FormatMoney(amountMinor int64, currencyCode, locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	p := message.NewPrinter(tag)

	neg := amountMinor < 0
	abs := amountMinor
	if neg {
		abs = -abs
	}

	// Formatted in two halves so amounts beyond float64's 53-bit integer
	// range stay exact: the units ride x/text's int64 path (with locale
	// grouping), and the cents value is always below 100.
	units := p.Sprint(number.Decimal(abs / 100))
	cents := p.Sprint(number.Decimal(float64(abs%100)/100,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
	amount := units + strings.TrimPrefix(cents, p.Sprint(number.Decimal(0)))
	if neg {
		amount = "-" + amount
	}

	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return strings.ToUpper(currencyCode) + " " + amount
	}
	return p.Sprint(currency.Symbol(unit)) + amount
}

// ─── SHIPPING METHOD ─────────────────────────────────────────────────────────

// ShippingMethod is either a numeric carrier code or a pre-resolved label.
// Legacy callers that already resolved the label set Label and leave Code
// zero; Label always wins when both are set.
type ShippingMethod struct {
	Code  int64  `json:"code,omitempty"`
	Label string `json:"label,omitempty"`
}

// shippingMethodNames is the fixed code table. Extending it is a config
// concern for the storefronts, not something order payloads control.
var shippingMethodNames = map[int64]string{
	1: "Standard",
	2: "Express",
}

// ShippingMethodLabel resolves a ShippingMethod to its display label.
// Unknown codes render as "Method #<code>".
func ShippingMethodLabel(m ShippingMethod) string {
	if m.Label != "" {
		return m.Label
	}
	if name, ok := shippingMethodNames[m.Code]; ok {
		return name
	}
	return fmt.Sprintf("Method #%d", m.Code)
}

// ─── HTML ESCAPING ───────────────────────────────────────────────────────────

// htmlEscaper rewrites the five HTML-significant characters in a single pass.
// strings.Replacer never rescans its own output, so an ampersand in the input
// cannot double-escape the entities produced for the other four characters
// ("&lt;" in becomes "&amp;lt;" out). Not idempotent: the composer applies it
// exactly once per raw field and never to built HTML fragments.
//
// The stdlib html.EscapeString is close but emits &#34; for the double quote;
// this table is the one the storefront templates were written against.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

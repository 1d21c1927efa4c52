// Package email builds and delivers transactional storefront email. The
// composer is a pure function from order data to a ready-to-send message;
// delivery goes through a Service holding a per-store config resolver and a
// swappable transport factory.
package email

import "context"

// StoreEmailConfig is one tenant's mail identity. User/Pass are the SMTP
// credentials for the store's sending mailbox.
type StoreEmailConfig struct {
	User        string // SMTP login, e.g. "orders@acmeprints.com"
	Pass        string
	StoreName   string // display name, e.g. "Acme Prints"
	FrontendURL string // base URL for the order tracking link
	Locale      string // BCP 47 tag for money formatting; empty means "en-US"
}

// Message is a fully composed email, ready for any transport.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// SendOrderConfirmationParams identifies the tenant, the recipient, and the
// order being confirmed.
type SendOrderConfirmationParams struct {
	StoreID string
	To      string
	OrderID string
	Payload OrderConfirmationPayload
}

// SendResult reports a successful delivery. MessageID is the provider's
// message identifier when one is available; it may be empty.
type SendResult struct {
	MessageID string
}

// Sender is the interface the api package uses to send order confirmations.
// Tests inject a stub that records calls without hitting the network.
type Sender interface {
	SendOrderConfirmation(ctx context.Context, p SendOrderConfirmationParams) (SendResult, error)
}

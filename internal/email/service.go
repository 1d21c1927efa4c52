package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ─── RESOLUTION & TRANSPORT CAPABILITIES ─────────────────────────────────────

// ConfigResolver maps a store id to that tenant's email configuration.
// It is consulted fresh on every send — implementations must not require a
// process restart for rotated credentials to take effect.
type ConfigResolver func(storeID string) (StoreEmailConfig, bool)

// TransportOptions describe the SMTP endpoint a transport should talk to.
type TransportOptions struct {
	Host   string
	Port   int
	Secure bool // implicit TLS (SMTPS) when true
	User   string
	Pass   string
}

// SendInfo is the transport's delivery report. MessageID may be empty for
// providers that do not return one; the service tolerates that.
type SendInfo struct {
	MessageID string
}

// Transport delivers a composed message. The production implementation is the
// SMTP client in smtp.go; tests inject a recorder.
type Transport interface {
	SendMail(ctx context.Context, msg Message) (SendInfo, error)
}

// TransportFactory builds a Transport for one send. Injecting the factory
// (rather than a transport instance) lets the service derive per-store
// connection options while tests intercept both the options and the message.
type TransportFactory func(opts TransportOptions) (Transport, error)

// ─── ERRORS ──────────────────────────────────────────────────────────────────

var (
	// ErrStoreNotConfigured is returned when the resolver has no entry for
	// the requested store id.
	ErrStoreNotConfigured = errors.New("email: store not configured")

	// ErrMissingCredentials is returned when the store entry exists but has
	// no SMTP user or password. Checked before composition is attempted.
	ErrMissingCredentials = errors.New(`email: config missing "user" or "pass"`)
)

// ─── SERVICE ─────────────────────────────────────────────────────────────────

// Service sends order-confirmation email for any configured store. It never
// panics: resolution, composition, and transport failures all come back as
// ordinary errors, logged once at this boundary.
type Service struct {
	resolve      ConfigResolver
	newTransport TransportFactory
	logger       *slog.Logger
}

// NewService constructs the email service. A nil factory selects the default
// implicit-TLS SMTP transport.
func NewService(resolve ConfigResolver, factory TransportFactory, logger *slog.Logger) *Service {
	if factory == nil {
		factory = NewSMTPTransport
	}
	return &Service{
		resolve:      resolve,
		newTransport: factory,
		logger:       logger,
	}
}

// SendOrderConfirmation resolves the store config, composes the message, and
// delivers it through the transport. Single linear pass with early exits —
// no retries; each send is attempted exactly once.
func (s *Service) SendOrderConfirmation(ctx context.Context, p SendOrderConfirmationParams) (SendResult, error) {
	cfg, ok := s.resolve(p.StoreID)
	if !ok {
		return SendResult{}, fmt.Errorf("email: store %q: %w", p.StoreID, ErrStoreNotConfigured)
	}
	if cfg.User == "" || cfg.Pass == "" {
		return SendResult{}, fmt.Errorf("email: store %q: %w", p.StoreID, ErrMissingCredentials)
	}

	msg, err := ComposeOrderConfirmation(cfg, p.To, p.OrderID, p.Payload)
	if err != nil {
		return SendResult{}, fmt.Errorf("email: compose order %s: %w", p.OrderID, err)
	}

	transport, err := s.newTransport(DefaultTransportOptions(cfg))
	if err != nil {
		s.logger.Error("email: transport construction failed",
			"store_id", p.StoreID, "error", err)
		return SendResult{}, fmt.Errorf("email: transport: %w", err)
	}

	info, err := transport.SendMail(ctx, msg)
	if err != nil {
		s.logger.Error("email: send failed",
			"store_id", p.StoreID, "order_id", p.OrderID, "to", p.To, "error", err)
		return SendResult{}, fmt.Errorf("email: send order %s: %w", p.OrderID, err)
	}

	s.logger.Info("email: order confirmation sent",
		"store_id", p.StoreID, "order_id", p.OrderID, "message_id", info.MessageID)
	return SendResult{MessageID: info.MessageID}, nil
}

// DefaultTransportOptions derives the conventional SMTP endpoint for a store
// mailbox: "mail." prefixed onto the mailbox domain, SMTPS on port 465. Stores
// on other providers inject their own TransportFactory instead.
func DefaultTransportOptions(cfg StoreEmailConfig) TransportOptions {
	return TransportOptions{
		Host:   "mail." + mailDomain(cfg.User),
		Port:   465,
		Secure: true,
		User:   cfg.User,
		Pass:   cfg.Pass,
	}
}

// mailDomain returns the domain of an SMTP login. A login that is not an
// address is treated as a bare domain.
func mailDomain(user string) string {
	if i := strings.LastIndexByte(user, '@'); i >= 0 {
		return user[i+1:]
	}
	return user
}

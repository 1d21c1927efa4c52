package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// smtpTransport is the default Transport: a one-shot SMTP client speaking
// implicit TLS (SMTPS) or STARTTLS depending on the options.
type smtpTransport struct {
	opts        TransportOptions
	dialTimeout time.Duration
}

// NewSMTPTransport validates the options and returns the default transport.
// It satisfies TransportFactory.
func NewSMTPTransport(opts TransportOptions) (Transport, error) {
	if opts.Host == "" {
		return nil, errors.New("email: smtp host is required")
	}
	if opts.Port <= 0 || opts.Port > 65535 {
		return nil, fmt.Errorf("email: invalid smtp port %d", opts.Port)
	}
	return &smtpTransport{
		opts:        opts,
		dialTimeout: 30 * time.Second,
	}, nil
}

// SendMail assembles the MIME message and delivers it in a single SMTP
// session. The generated Message-ID is returned so callers can correlate
// provider logs with order records.
func (t *smtpTransport) SendMail(ctx context.Context, msg Message) (SendInfo, error) {
	from, err := envelopeAddress(msg.From)
	if err != nil {
		return SendInfo{}, fmt.Errorf("email: invalid from address: %w", err)
	}
	to, err := envelopeAddress(msg.To)
	if err != nil {
		return SendInfo{}, fmt.Errorf("email: invalid recipient: %w", err)
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), mailDomain(from))
	raw, err := buildMIME(msg, messageID)
	if err != nil {
		return SendInfo{}, err
	}

	if err := t.deliver(ctx, from, to, raw); err != nil {
		return SendInfo{}, err
	}
	return SendInfo{MessageID: messageID}, nil
}

func (t *smtpTransport) deliver(ctx context.Context, from, to string, raw []byte) error {
	addr := net.JoinHostPort(t.opts.Host, strconv.Itoa(t.opts.Port))

	dialer := &net.Dialer{Timeout: t.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("email: dial %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	tlsConfig := &tls.Config{
		ServerName: t.opts.Host,
		MinVersion: tls.VersionTLS12,
	}

	// Port 465 negotiates TLS before any SMTP banner.
	if t.opts.Secure {
		tlsConn := tls.Client(conn, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			return fmt.Errorf("email: tls handshake: %w", err)
		}
		conn = tlsConn
	}

	client, err := smtp.NewClient(conn, t.opts.Host)
	if err != nil {
		return fmt.Errorf("email: smtp client: %w", err)
	}
	defer client.Close()

	if !t.opts.Secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("email: starttls: %w", err)
			}
		}
	}

	if t.opts.User != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", t.opts.User, t.opts.Pass, t.opts.Host)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("email: auth: %w", err)
			}
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("email: mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("email: rcpt to %s: %w", to, err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("email: data: %w", err)
	}
	if _, err := writer.Write(raw); err != nil {
		_ = writer.Close()
		return fmt.Errorf("email: data write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("email: data close: %w", err)
	}

	if err := client.Quit(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("email: quit: %w", err)
	}
	return ctx.Err()
}

// ─── MIME ASSEMBLY ───────────────────────────────────────────────────────────

// buildMIME renders the message as multipart/alternative with the plain-text
// part first, per RFC 2046's least-faithful-first ordering.
func buildMIME(msg Message, messageID string) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	headers := []struct{ key, value string }{
		{"From", msg.From},
		{"To", msg.To},
		{"Subject", sanitizeHeader(msg.Subject)},
		{"Date", time.Now().UTC().Format(time.RFC1123Z)},
		{"Message-Id", messageID},
		{"MIME-Version", "1.0"},
		{"Content-Type", `multipart/alternative; boundary="` + mw.Boundary() + `"`},
	}
	for _, h := range headers {
		buf.WriteString(h.key)
		buf.WriteString(": ")
		buf.WriteString(h.value)
		buf.WriteString("\r\n")
	}
	buf.WriteString("\r\n")

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return nil, fmt.Errorf("email: text part: %w", err)
	}
	if _, err := io.WriteString(textPart, crlf(msg.Text)); err != nil {
		return nil, fmt.Errorf("email: write text part: %w", err)
	}

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return nil, fmt.Errorf("email: html part: %w", err)
	}
	if _, err := io.WriteString(htmlPart, crlf(msg.HTML)); err != nil {
		return nil, fmt.Errorf("email: write html part: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("email: close multipart: %w", err)
	}
	return buf.Bytes(), nil
}

// envelopeAddress extracts the bare address from a header value that may
// carry a display name, e.g. `"Acme Orders" <orders@acme.com>`.
func envelopeAddress(value string) (string, error) {
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return "", err
	}
	return addr.Address, nil
}

// sanitizeHeader strips CR/LF so a subject can never smuggle extra headers.
func sanitizeHeader(value string) string {
	clean := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		if value[i] == '\r' || value[i] == '\n' {
			clean = append(clean, ' ')
			continue
		}
		clean = append(clean, value[i])
	}
	return string(clean)
}

// crlf normalizes body line endings to CRLF as SMTP requires.
func crlf(s string) string {
	var b bytes.Buffer
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				continue // let the \n case write the pair
			}
			b.WriteString("\r\n")
		case '\n':
			b.WriteString("\r\n")
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

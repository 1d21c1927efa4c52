// Package printify wraps the Printify REST API for order fulfillment.
// Submission is a pass-through: the storefront payload maps one-to-one onto
// Printify's order shape and no state is kept here.
package printify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const apiBaseURL = "https://api.printify.com/v1"

// Credentials identify one store's Printify shop.
type Credentials struct {
	Token  string
	ShopID int64
}

// CredentialsResolver maps a store id to its Printify credentials.
type CredentialsResolver func(storeID string) (Credentials, bool)

// ErrStoreNotConfigured is returned when a store has no Printify shop.
var ErrStoreNotConfigured = errors.New("printify: store has no shop configured")

// ─── ORDER SHAPES ────────────────────────────────────────────────────────────

// LineItem is one product/variant pair to fulfill.
type LineItem struct {
	ProductID string `json:"product_id"`
	VariantID int64  `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// AddressTo is the shipping destination in Printify's field naming.
type AddressTo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Country   string `json:"country"`
	Region    string `json:"region"`
	City      string `json:"city"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	Zip       string `json:"zip"`
}

// SubmitOrderParams is the order submission payload.
type SubmitOrderParams struct {
	ExternalID     string     `json:"external_id"`
	LineItems      []LineItem `json:"line_items"`
	ShippingMethod int64      `json:"shipping_method"`
	SendToProd     bool       `json:"send_shipping_notification"`
	AddressTo      AddressTo  `json:"address_to"`
}

// Submission is Printify's acknowledgement of a created order.
type Submission struct {
	ID string `json:"id"`
}

// Client is the interface the api package uses to submit fulfillment orders.
type Client interface {
	SubmitOrder(ctx context.Context, storeID string, p SubmitOrderParams) (Submission, error)
}

// ─── HTTP CLIENT ─────────────────────────────────────────────────────────────

// httpClient is the concrete Client backed by the Printify REST API.
type httpClient struct {
	resolve CredentialsResolver
	baseURL string
	http    *http.Client
}

// NewClient returns a Client that talks to api.printify.com.
func NewClient(resolve CredentialsResolver) Client {
	return &httpClient{
		resolve: resolve,
		baseURL: apiBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type apiError struct {
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

// SubmitOrder creates the order on the store's Printify shop.
func (c *httpClient) SubmitOrder(ctx context.Context, storeID string, p SubmitOrderParams) (Submission, error) {
	creds, ok := c.resolve(storeID)
	if !ok || creds.Token == "" {
		return Submission{}, fmt.Errorf("printify: store %q: %w", storeID, ErrStoreNotConfigured)
	}

	url := fmt.Sprintf("%s/shops/%d/orders.json", c.baseURL, creds.ShopID)
	var out Submission
	if err := c.do(ctx, creds.Token, http.MethodPost, url, p, &out); err != nil {
		return Submission{}, err
	}
	return out, nil
}

func (c *httpClient) do(ctx context.Context, token, method, url string, body, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("printify: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("printify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("printify: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return fmt.Errorf("printify: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed apiError
		if json.Unmarshal(respBytes, &parsed) == nil && parsed.Message != "" {
			return fmt.Errorf("printify: %s (status %d)", parsed.Message, resp.StatusCode)
		}
		return fmt.Errorf("printify: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	if out != nil {
		if err := json.Unmarshal(respBytes, out); err != nil {
			return fmt.Errorf("printify: unmarshal response: %w", err)
		}
	}
	return nil
}

// Package payments talks to the card-payment provider. The flow is the
// hosted-fields one: the server creates a payment intent and hands the client
// secret to the browser, the browser collects the card, and the server
// confirms the intent before granting anything.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"speakeasy.club/internal/ids"
)

const (
	sandboxBaseURL = "https://api-demo.airwallex.com"
	liveBaseURL    = "https://api.airwallex.com"

	// Tokens last 30 minutes server-side; refresh well before that.
	tokenLifetime = 20 * time.Minute
)

var (
	ErrNotConfigured = errors.New("payments: provider credentials not configured")
	ErrDeclined      = errors.New("payments: intent not in a payable state")
)

// Intent is the subset of the provider's payment-intent object the service
// cares about.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"-"`
	Currency     string `json:"currency"`
}

// Succeeded reports whether the intent has settled.
func (i *Intent) Succeeded() bool {
	return i.Status == "SUCCEEDED" || i.Status == "CAPTURE_REQUESTED"
}

// Client is a minimal payment-provider API client with cached bearer auth.
type Client struct {
	clientID string
	apiKey   string
	baseURL  string
	httpc    *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

type Option func(*Client)

// WithBaseURL overrides the provider endpoint. Tests point it at httptest.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// NewClient builds a provider client. sandbox selects the demo environment.
func NewClient(clientID, apiKey string, sandbox bool, opts ...Option) *Client {
	base := liveBaseURL
	if sandbox {
		base = sandboxBaseURL
	}
	c := &Client{
		clientID: clientID,
		apiKey:   apiKey,
		baseURL:  base,
		httpc:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether provider credentials are present.
func (c *Client) Configured() bool {
	return c != nil && c.clientID != "" && c.apiKey != ""
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/authentication/login", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("payments login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payments login: status %d", resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", fmt.Errorf("payments login: decode: %w", err)
	}
	if body.Token == "" {
		return "", errors.New("payments login: empty token")
	}
	c.token = body.Token
	c.tokenExpiry = time.Now().Add(tokenLifetime)
	return c.token, nil
}

// CreateIntent registers a payment intent for the given amount in minor units.
func (c *Client) CreateIntent(ctx context.Context, amountCents int64, currency string) (*Intent, error) {
	payload := map[string]any{
		"request_id":        ids.New(),
		"amount":            float64(amountCents) / 100,
		"currency":          currency,
		"merchant_order_id": ids.New(),
	}
	var intent Intent
	if err := c.post(ctx, "/api/v1/pa/payment_intents/create", payload, &intent); err != nil {
		return nil, err
	}
	intent.Amount = amountCents
	return &intent, nil
}

// GetIntent fetches the current state of a payment intent.
func (c *Client) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/pa/payment_intents/"+intentID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payments get intent: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrDeclined
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payments get intent: status %d", resp.StatusCode)
	}
	var intent Intent
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&intent); err != nil {
		return nil, fmt.Errorf("payments get intent: decode: %w", err)
	}
	return &intent, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	token, err := c.bearer(ctx)
	if err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("payments request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("payments request %s: status %d", path, resp.StatusCode)
	}
	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("payments request %s: decode: %w", path, err)
	}
	return nil
}

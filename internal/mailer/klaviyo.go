// Package mailer pushes subscriber signups to the mailing-list provider.
// All calls are best-effort: the caller logs failures and moves on.
package mailer

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

const (
	defaultBaseURL = "https://a.klaviyo.com"
	apiRevision    = "2024-10-15"
)

var ErrNotConfigured = errors.New("mailer: provider credentials not configured")

// Client subscribes profiles to a configured list over the provider's JSON API.
type Client struct {
	apiKey  string
	listID  string
	baseURL string
	httpc   *http.Client
}

type Option func(*Client)

// WithBaseURL overrides the provider endpoint. Tests point it at httptest.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func NewClient(apiKey, listID string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		listID:  listID,
		baseURL: defaultBaseURL,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether provider credentials are present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != "" && c.listID != ""
}

// Subscribe adds the address to the configured list. The provider treats
// resubscription as a no-op, so callers need not dedupe.
func (c *Client) Subscribe(ctx context.Context, email string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	payload := map[string]any{
		"data": map[string]any{
			"type": "profile-subscription-bulk-create-job",
			"attributes": map[string]any{
				"profiles": map[string]any{
					"data": []map[string]any{{
						"type":       "profile",
						"attributes": map[string]any{"email": email},
					}},
				},
			},
			"relationships": map[string]any{
				"list": map[string]any{
					"data": map[string]any{"type": "list", "id": c.listID},
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/profile-subscription-bulk-create-jobs/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Klaviyo-API-Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("revision", apiRevision)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("mailer subscribe: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mailer subscribe: status %d", resp.StatusCode)
	}
	return nil
}

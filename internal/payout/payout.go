// Package payout talks to the external payout service. Calls are slow and
// can fail; callers bound each one with a timeout and treat a failure as a
// pending reconciliation, never as a reason to stall the round.
package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Client posts payout legs to the payout service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

func (c *Client) Win(ctx context.Context, playerID string, amount int64) error {
	return c.post(ctx, "win", playerID, amount)
}

func (c *Client) Push(ctx context.Context, playerID string, amount int64) error {
	return c.post(ctx, "push", playerID, amount)
}

func (c *Client) Blackjack(ctx context.Context, playerID string, amount int64) error {
	return c.post(ctx, "blackjack", playerID, amount)
}

func (c *Client) post(ctx context.Context, leg, playerID string, amount int64) error {
	body, err := json.Marshal(struct {
		PlayerID string `json:"player_id"`
		Amount   int64  `json:"amount"`
	}{PlayerID: playerID, Amount: amount})
	if err != nil {
		return fmt.Errorf("payout %s: %w", leg, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payout/"+leg, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("payout %s: %w", leg, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("payout %s: %w", leg, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("payout %s: service returned %s", leg, resp.Status)
	}
	return nil
}

// Noop accepts every payout without doing anything. Used for dev runs with
// no payout service configured.
type Noop struct{}

func (Noop) Win(context.Context, string, int64) error       { return nil }
func (Noop) Push(context.Context, string, int64) error      { return nil }
func (Noop) Blackjack(context.Context, string, int64) error { return nil }

// Package sheets mirrors completed sales to a Google Apps Script web app
// backing a spreadsheet. The mirror is best-effort: the sale is already in
// the local ledger before Send is called, and nothing here can undo that.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"boothbabe/backend/internal/domain"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	endpoint string
	secret   string
	http     *http.Client
}

func New(endpoint string, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		secret:   secret,
		http:     &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether an endpoint is configured at all.
func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != ""
}

type payload struct {
	Secret      string            `json:"secret"`
	Timestamp   string            `json:"timestamp"`
	OrderNumber string            `json:"orderNumber"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	Items       []domain.SaleLine `json:"items"`
	Notes       string            `json:"notes"`
	Event       string            `json:"event"`
}

type ackBody struct {
	OK bool `json:"ok"`
}

// Send posts one sale to the configured endpoint. The returned bool is true
// when the endpoint acknowledged the row; an opaque (non-JSON) 2xx body also
// counts as acknowledged, since some Apps Script deployments return one.
func (c *Client) Send(ctx context.Context, sale domain.SaleRecord) (bool, error) {
	if !c.Enabled() {
		return false, fmt.Errorf("sheets sync not configured")
	}

	body, err := json.Marshal(payload{
		Secret:      c.secret,
		Timestamp:   sale.CreatedAtISO,
		OrderNumber: sale.OrderNumber,
		Subtotal:    sale.Subtotal,
		Items:       sale.LineItems,
		Notes:       "",
		Event:       sale.EventTag,
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	// Apps Script web apps only accept simple (non-preflighted) requests,
	// so the JSON rides in a text/plain body.
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("sheets endpoint returned %s", resp.Status)
	}

	var ack ackBody
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return true, nil
	}
	return ack.OK, nil
}

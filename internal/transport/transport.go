// Package transport is the thin HTTP layer shared by submission, proof
// retrieval, and trusted-value lookup. Every request carries its own
// timeout; errors are surfaced to callers unchanged, never retried here.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single request when the caller does not set one.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps response bodies so a misbehaving endpoint cannot
// exhaust memory.
const maxResponseBytes = 4 << 20

// Client issues JSON requests against node and core endpoints.
type Client struct {
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a transport client. A zero timeout falls back to
// DefaultTimeout; a nil logger falls back to slog.Default.
func New(timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger,
	}
}

// GetJSON fetches uri and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, uri string, out any) error {
	body, err := c.do(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("transport: decode response from %s: %w", uri, err)
	}
	return nil
}

// Get fetches uri and returns the raw response body.
func (c *Client) Get(ctx context.Context, uri string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, uri, nil)
}

// PostJSON sends body as JSON to uri and decodes the JSON response into
// out when out is non-nil.
func (c *Client) PostJSON(ctx context.Context, uri string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("transport: encode request for %s: %w", uri, err)
	}
	resp, err := c.do(ctx, http.MethodPost, uri, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("transport: decode response from %s: %w", uri, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, uri string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, uri, reader)
	if err != nil {
		return nil, fmt.Errorf("transport: build %s %s: %w", method, uri, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: %s %s: %w", method, uri, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("transport: read response from %s: %w", uri, err)
	}

	c.logger.Debug("http request",
		"method", method,
		"uri", uri,
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("transport: %s %s: unexpected status %d", method, uri, resp.StatusCode)
	}
	return data, nil
}

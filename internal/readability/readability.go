// Package readability fetches and cleans raw HTML into extracted article
// text via a sidecar readability service, grounded on
// original_source/public-api/src/readability.rs.
package readability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/bookmarkhub/bookmarkhub/internal/apperr"
)

// Result is the cleaned article extracted from a page's raw HTML.
type Result struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	TextContent string `json:"textContent"`
}

// Client wraps the readability sidecar's HTTP API.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

const (
	connectTimeout = 5 * time.Second
	totalTimeout   = 60 * time.Second
	maxAttempts    = 3
)

// New builds a Client against endpoint (e.g. "http://localhost:3001").
func New(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: totalTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
	}
}

// Process submits rawHTML and returns the cleaned article. It makes at most
// maxAttempts attempts, retrying transient failures (connection errors, 5xx); a
// 4xx response or an empty text_content result is fatal and is not retried.
// Errors wrap apperr.UpstreamTransient or apperr.UpstreamFatal so the
// ingestion pipeline can route them through apperr.Classify.
func (c *Client) Process(ctx context.Context, rawHTML string) (Result, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := c.process(ctx, rawHTML)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, apperr.UpstreamTransient) {
			return Result{}, err
		}
		lastErr = err
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}

	return Result{}, lastErr
}

func (c *Client) process(ctx context.Context, rawHTML string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader([]byte(rawHTML)))
	if err != nil {
		return Result{}, fmt.Errorf("building readability request: %w", errors.Join(apperr.UpstreamFatal, err))
	}
	req.Header.Set("Content-Type", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("calling readability: %w", errors.Join(apperr.UpstreamTransient, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("readability returned %d: %w: %s", resp.StatusCode, apperr.UpstreamTransient, string(body))
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("readability returned %d: %w: %s", resp.StatusCode, apperr.UpstreamFatal, string(body))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decoding readability response: %w", errors.Join(apperr.UpstreamFatal, err))
	}

	if result.TextContent == "" {
		return Result{}, fmt.Errorf("readability returned empty text content: %w", apperr.UpstreamFatal)
	}

	return result, nil
}

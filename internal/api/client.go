// Package api is the HTTP client for the expense tracker backend.
//
// Every method performs exactly one request, never retries, and never touches
// shared state. Failures are *NetworkError, *HTTPError or *DecodeError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is used when no backend address is configured.
const DefaultBaseURL = "http://localhost:8080"

var errEmptyBody = errors.New("empty response body")

// Client implements service.ExpenseAPI over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	logger     *slog.Logger
	summary    SummaryPaths
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithSummaryPaths selects the aggregate endpoints to use.
func WithSummaryPaths(p SummaryPaths) Option {
	return func(c *Client) {
		c.summary = p
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:  slog.Default().With("component", "api"),
		summary: DefaultSummaryPaths,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the backend address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// do issues one request. A nil out discards the response body.
// The raw body is returned for callers that decode it themselves.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) ([]byte, error) {
	target := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("API request failed",
			"op", op,
			"method", method,
			"url", target.String(),
			"error", err)
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("API request",
		"op", op,
		"method", method,
		"url", target.String(),
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			Op:     op,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(raw)),
		}
	}

	if out == nil {
		return raw, nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &DecodeError{Op: op, Err: errEmptyBody}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	return raw, nil
}

// requireArray rejects bodies whose top level is not a JSON array, so a
// null or an object never turns into a silently empty list.
func requireArray(op string, raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return &DecodeError{Op: op, Err: errEmptyBody}
	}
	if trimmed[0] != '[' {
		return &DecodeError{Op: op, Err: fmt.Errorf("expected a JSON array, got %s", preview(trimmed))}
	}
	return nil
}

func preview(b []byte) string {
	const limit = 40
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}

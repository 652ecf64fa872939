package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/ozonms/fbosync/internal/metrics"
)

// RetryConfig defines retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// DefaultRetry provides sensible defaults.
var DefaultRetry = RetryConfig{
	MaxAttempts:  6,
	InitialDelay: 700 * time.Millisecond,
	MaxDelay:     20 * time.Second,
}

// Config holds settings for a JSON API client.
type Config struct {
	// Name labels the client in logs and metrics, e.g. "ozon".
	Name    string
	BaseURL string
	// Headers are attached to every request (auth, accept).
	Headers map[string]string
	// RPS caps the request rate against the API; 0 means unlimited.
	RPS     float64
	Retry   RetryConfig
	Timeout time.Duration
}

// APIError is a non-2xx response from the API. Body keeps the full response
// text so callers can classify the failure.
type APIError struct {
	Status int
	Body   string
	URL    string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 500 {
		body = body[:500]
	}
	return fmt.Sprintf("http %d from %s: %s", e.Status, e.URL, body)
}

// Client is a rate-limited, retrying JSON HTTP client. Both external APIs
// (marketplace and ERP) are called through one of these; the sync engine only
// ever sees a parsed response or a typed error.
type Client struct {
	name       string
	base       string
	headers    map[string]string
	limiter    *rate.Limiter
	retry      RetryConfig
	httpClient *http.Client
}

// New creates a client for one API.
func New(cfg Config) *Client {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}

	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = DefaultRetry.MaxAttempts
	}
	if retry.InitialDelay <= 0 {
		retry.InitialDelay = DefaultRetry.InitialDelay
	}
	if retry.MaxDelay <= 0 {
		retry.MaxDelay = DefaultRetry.MaxDelay
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		name:    cfg.Name,
		base:    trimSlash(cfg.BaseURL),
		headers: cfg.Headers,
		limiter: rate.NewLimiter(limit, 1),
		retry:   retry,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Get performs a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post performs a POST request with a JSON body and decodes the response
// into out. A nil out discards the response body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	reqURL := c.base + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		start := time.Now()
		err := c.attempt(ctx, method, reqURL, payload, out)
		metrics.HTTPRequests.WithLabelValues(c.name, method).Inc()
		metrics.HTTPLatency.WithLabelValues(c.name, method).Observe(time.Since(start).Seconds())
		if err == nil {
			return nil
		}
		metrics.HTTPErrors.WithLabelValues(c.name, method).Inc()
		lastErr = err

		if !retryable(err) {
			return err
		}
		if attempt == c.retry.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff(attempt)):
		}
	}

	return fmt.Errorf("%s: giving up after %d attempts: %w", c.name, c.retry.MaxAttempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, reqURL string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, reqURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: string(respBody), URL: reqURL}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response from %s: %w", reqURL, err)
	}
	return nil
}

// retryable reports whether the request may be repeated: network-level
// failures and throttling/server statuses. Other 4xx responses fail fast so
// the caller can classify them.
func retryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		// Network error, timeout, unreadable body.
		return true
	}
	switch apiErr.Status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// backoff calculates the delay before the next attempt: InitialDelay *
// 2^attempt, capped at MaxDelay.
func (c *Client) backoff(attempt int) time.Duration {
	delay := float64(c.retry.InitialDelay) * math.Pow(2, float64(attempt))
	if delay > float64(c.retry.MaxDelay) {
		delay = float64(c.retry.MaxDelay)
	}
	return time.Duration(delay)
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

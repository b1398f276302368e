// Package fetch is the HTTP transport shared by every source adapter.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/couchcryptid/i79-incident-etl/internal/observability"
)

// maxBodyBytes bounds a single response body.
const maxBodyBytes = 32 << 20

// Fetcher retrieves the raw body at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Error is the single error type returned by fetchers. StatusCode is zero when
// the request never produced an HTTP response.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not a
// status failure.
func StatusCode(err error) int {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}

// Client fetches URLs with a fixed timeout and User-Agent.
type Client struct {
	httpClient *http.Client
	userAgent  string
	metrics    *observability.Metrics
}

// NewClient creates a Client. Each request is bounded by timeout.
func NewClient(timeout time.Duration, userAgent string, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		metrics:    metrics,
	}
}

// Fetch performs a GET and returns the body. Non-2xx responses are errors.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	body, err := c.do(ctx, url)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		c.metrics.FetchRequests.WithLabelValues("success").Inc()
	case StatusCode(err) != 0:
		c.metrics.FetchRequests.WithLabelValues("status").Inc()
	default:
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
	}
	return body, err
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &Error{URL: url, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &Error{URL: url, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

// FetchJSON fetches url and decodes the body into v. Decode failures are
// reported as *Error so callers handle them like any other fetch failure.
func FetchJSON(ctx context.Context, f Fetcher, url string, v any) error {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &Error{URL: url, Err: fmt.Errorf("decode json: %w", err)}
	}
	return nil
}

package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits to prevent resource exhaustion when a page
// hosts many content regions fetching from the same origin
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// Response holds the result of a content fetch made by [Client].
//
// Response captures the body (limited to 1MB), status code, latency, and
// any error that occurred. There is deliberately no timeout handling here:
// fetches are cancelled exclusively through the context, when a newer cycle
// supersedes them.
type Response struct {
	// Body contains the HTTP response body, limited to 1MB.
	Body []byte

	// StatusCode is the HTTP status code (e.g., 200, 404, 500).
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error contains any error that occurred during the request.
	// nil indicates the request completed (though the status code may
	// still indicate a failure).
	Error error
}

// Client is an HTTP client wrapper for content fetches.
//
// Cancellation is driven purely by the per-fetch context; the client sets
// no timeout of its own. Response bodies are limited to 1MB to prevent
// memory issues.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a [Client] with connection pooling limits suitable for
// repeated fetches against a small set of content origins.
func NewClient() *Client {
	return NewClientWith(&http.Client{
		// no client timeout: cancellation comes from cycle supersession only
		Transport: &http.Transport{
			MaxIdleConns:        defaultMaxIdleConns,
			MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
			MaxConnsPerHost:     defaultMaxConnsPerHost,
			IdleConnTimeout:     defaultIdleConnTimeout,
		},
	})
}

// NewClientWith wraps an existing [http.Client]. Use this to inject custom
// transports (proxies, recorded responses in tests).
func NewClientWith(hc *http.Client) *Client {
	return &Client{httpClient: hc}
}

// Fetch performs a GET request and returns a structured [Response].
//
// Fetch always returns a Response; errors are captured in the Error field
// rather than returned separately. Cancellation through ctx surfaces as an
// Error wrapping [context.Canceled]; callers decide whether to suppress it.
func (c *Client) Fetch(ctx context.Context, url string) Response {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		// best-effort content: keep whatever was read before the failure
		return Response{
			Body:       body,
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

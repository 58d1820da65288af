package contentloader

import (
	"errors"
	"log/slog"
	"net/http"
)

// poolConfig holds mutable state during Pool construction.
type poolConfig struct {
	logger           *slog.Logger
	httpClient       *http.Client
	maxConcurrency   int
	subscriberBuffer int
}

// Option is a function that configures a [Pool] instance during
// construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithLogger], [WithHTTPClient], [WithMaxConcurrency],
// [WithSubscriberBuffer].
type Option func(*poolConfig) error

// WithLogger sets a custom [slog.Logger] for the pool.
//
// This allows embedding applications to control where logs are written and
// in what format. If not specified, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	pool, err := contentloader.New(contentloader.WithLogger(logger))
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *poolConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithHTTPClient sets the [http.Client] used for all fetches.
//
// Use this to inject proxies, custom transports, or recorded responses in
// tests. If not specified, a client with conservative connection-pool
// limits is used. The pool never sets a client timeout: fetches are
// cancelled exclusively by cycle supersession.
//
// Returns an error if the client is nil.
func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *poolConfig) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		cfg.httpClient = hc
		return nil
	}
}

// WithMaxConcurrency bounds the number of fetches in flight at once.
//
// Loading notifications are never delayed by the bound; only the network
// requests queue for a slot. The default of 0 means unlimited, matching
// the behavior of dispatching every unique URL of a cycle concurrently.
//
// Returns an error if n is negative.
func WithMaxConcurrency(n int) Option {
	return func(cfg *poolConfig) error {
		if n < 0 {
			return errors.New("max concurrency cannot be negative")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithSubscriberBuffer sets the channel buffer for subscriptions created
// via [Pool.Subscribe]. Defaults to 100. A subscriber whose buffer is full
// misses updates rather than blocking delivery.
//
// Returns an error if n is not positive.
func WithSubscriberBuffer(n int) Option {
	return func(cfg *poolConfig) error {
		if n <= 0 {
			return errors.New("subscriber buffer must be positive")
		}
		cfg.subscriberBuffer = n
		return nil
	}
}

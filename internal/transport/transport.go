// Package transport implements the single-URL fetch unit of the content
// loader: one Transport owns exactly one URL for one cycle and fans its
// lifecycle updates out to every handler registered for that URL.
//
// This is the internal representation, decoupled from the public
// contentloader types to avoid circular dependencies; the pool converts
// [Update] values into its public status type.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"
)

// Lifecycle states reported through [Update].
const (
	StatusLoading = "loading"
	StatusLoaded  = "loaded"
	StatusFailed  = "failed"
)

// Update is a lifecycle event of one fetch, delivered to every registered
// handler.
type Update struct {
	// Status is one of [StatusLoading], [StatusLoaded], [StatusFailed].
	Status string

	// URL is the transport's URL.
	URL string

	// Body is the response body. Nil while loading; best-effort (possibly
	// partial or empty) on network-level failures.
	Body []byte

	// StatusCode is the HTTP status code. Zero while loading and when no
	// response was received.
	StatusCode int

	// OK is true when the status code is in the 2xx range.
	OK bool

	// Data is the auxiliary value registered with the receiving handler.
	Data any
}

// Handler receives lifecycle updates for one transport.
type Handler func(Update)

// entry pairs a handler with the auxiliary data it registered.
type entry struct {
	fn   Handler
	data any
}

// Transport fetches one URL and fans lifecycle updates out to its handlers.
//
// A Transport is created fresh for every cycle, even for a URL the previous
// cycle also fetched, because its cancellation scope is the cycle context
// passed to [Transport.Execute]. It is not safe for concurrent mutation:
// register all handlers before calling Execute, and call Execute once.
type Transport struct {
	url      string
	client   *Client
	gate     chan struct{}
	logger   *slog.Logger
	entries  []entry
	observer func(Update)
}

// New creates a [Transport] for a single URL.
//
// The url must be non-empty and the client non-nil; violations return an
// error immediately. gate optionally bounds concurrent fetches: when
// non-nil, the fetch acquires a slot before performing the request. A nil
// logger falls back to [slog.Default].
func New(url string, client *Client, gate chan struct{}, logger *slog.Logger) (*Transport, error) {
	if url == "" {
		return nil, errors.New("transport url must be a non-empty string")
	}
	if client == nil {
		return nil, errors.New("transport client must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		url:    url,
		client: client,
		gate:   gate,
		logger: logger,
	}, nil
}

// URL returns the transport's URL.
func (t *Transport) URL() string {
	return t.url
}

// RegisterHandler appends a handler with its auxiliary data.
//
// Returns an error if fn is nil. Duplicates are permitted: registering the
// same handler twice invokes it twice per update, each invocation carrying
// the data registered with it.
func (t *Transport) RegisterHandler(fn Handler, data any) error {
	if fn == nil {
		return errors.New("transport status handler must not be nil")
	}
	t.entries = append(t.entries, entry{fn: fn, data: data})
	return nil
}

// Observe sets a single observer invoked once per lifecycle event, before
// the handlers and without auxiliary data. The pool uses it to feed its
// subscription stream.
func (t *Transport) Observe(fn func(Update)) {
	t.observer = fn
}

// Execute dispatches the fetch.
//
// Every handler is notified with a loading update synchronously, in
// registration order, before Execute returns; the network fetch then runs
// in a background goroutine bound to ctx. On completion each handler
// receives exactly one terminal update: loaded for 2xx responses, failed
// otherwise. If ctx is cancelled before the fetch settles, the terminal
// update is suppressed — supersession is not an error and never surfaces
// as one.
func (t *Transport) Execute(ctx context.Context) {
	t.notify(Update{Status: StatusLoading, URL: t.url})
	go t.fetch(ctx)
}

func (t *Transport) fetch(ctx context.Context) {
	if t.gate != nil {
		select {
		case t.gate <- struct{}{}:
			defer func() { <-t.gate }()
		case <-ctx.Done():
			t.logger.Debug("fetch superseded before start", "url", t.url)
			return
		}
	}

	resp := t.client.Fetch(ctx, t.url)

	// a cancelled fetch means a newer cycle took over: drop the result
	if ctx.Err() != nil || errors.Is(resp.Error, context.Canceled) {
		t.logger.Debug("fetch superseded", "url", t.url)
		return
	}

	up := Update{
		URL:        t.url,
		Body:       resp.Body,
		StatusCode: resp.StatusCode,
	}
	switch {
	case resp.Error == nil && resp.StatusCode >= 200 && resp.StatusCode < 300:
		up.Status = StatusLoaded
		up.OK = true
	default:
		up.Status = StatusFailed
		if resp.Error != nil {
			t.logger.Debug("fetch failed",
				"url", t.url,
				"error", resp.Error,
				"latency_ms", resp.Latency.Milliseconds(),
			)
		}
	}
	t.notify(up)
}

// notify delivers an update to the observer and then to every handler in
// registration order, injecting each entry's auxiliary data.
func (t *Transport) notify(up Update) {
	if t.observer != nil {
		up.Data = nil
		t.observer(up)
	}
	for _, e := range t.entries {
		up.Data = e.data
		t.invokeSafe(e.fn, up)
	}
}

// invokeSafe calls a handler with panic recovery. A panicking handler is
// logged with a correlation id and does not stop delivery to later handlers.
func (t *Transport) invokeSafe(fn Handler, up Update) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			t.logger.Error("status handler panic",
				"correlation_id", correlationID,
				"url", t.url,
				"status", up.Status,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn(up)
}

package contentloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/helga-agentur/contentloader/internal/feed"
	"github.com/helga-agentur/contentloader/internal/transport"
)

const defaultSubscriberBuffer = 100

// Pool is the coordination core of the content loader.
//
// A Pool collects URL requests from all registered producers, deduplicates
// identical URLs into a single fetch, cancels the previous generation of
// in-flight fetches whenever a new cycle begins, and redistributes each
// fetch's status updates to every producer that asked for that URL.
//
// The typical lifecycle is:
//
//	pool, err := contentloader.New()
//	if err != nil { ... }
//	defer pool.Close()
//
//	_ = pool.RegisterProducer(p)
//	err = pool.StartCycle(ctx, contentloader.RequestContext{
//	    Params: url.Values{"q": {"5"}},
//	})
//
// Registration and cycle starts are safe for concurrent use, though cycles
// are expected to originate from a single interaction source; when two
// StartCycle calls race, supersession order follows their internal lock
// acquisition order.
type Pool struct {
	logger *slog.Logger
	client *transport.Client
	gate   chan struct{}
	feed   *feed.Feed[StatusUpdate]

	mu        sync.Mutex
	producers []Producer
	cancel    context.CancelFunc
}

// New creates a [Pool] with the given options.
//
// All options have defaults: [slog.Default] logging, a pooled HTTP client,
// unlimited fetch concurrency, and a subscriber buffer of 100.
func New(opts ...Option) (*Pool, error) {
	cfg := &poolConfig{
		subscriberBuffer: defaultSubscriberBuffer,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	client := transport.NewClient()
	if cfg.httpClient != nil {
		client = transport.NewClientWith(cfg.httpClient)
	}

	var gate chan struct{}
	if cfg.maxConcurrency > 0 {
		gate = make(chan struct{}, cfg.maxConcurrency)
	}

	return &Pool{
		logger: logger,
		client: client,
		gate:   gate,
		feed:   feed.New[StatusUpdate](cfg.subscriberBuffer),
	}, nil
}

// RegisterProducer appends a producer to the registry.
//
// Registration order is preserved and observable: producers are queried in
// this order on every cycle, and handlers sharing a URL are notified in
// this order. Duplicate registrations are allowed by design — the same
// component may need two independent registrations — and there is no
// unregistration; the registry lives as long as the pool.
//
// A producer with a nil assembler or handler (the zero [Producer] value)
// is rejected with an error wrapping [ErrInvalidArgument] that names the
// offending property.
func (p *Pool) RegisterProducer(pr Producer) error {
	if pr.assemble == nil {
		return fmt.Errorf("%w: producer url assembler must not be nil", ErrInvalidArgument)
	}
	if pr.handle == nil {
		return fmt.Errorf("%w: producer status handler must not be nil", ErrInvalidArgument)
	}

	p.mu.Lock()
	p.producers = append(p.producers, pr)
	count := len(p.producers)
	p.mu.Unlock()

	p.logger.Debug("producer registered", "name", pr.name, "registered", count)
	return nil
}

// assignment maps one producer onto the URL group it joined for a cycle,
// retaining the auxiliary data its assembler attached.
type assignment struct {
	producer Producer
	data     any
}

// StartCycle begins a new coordination cycle.
//
// The previous cycle's fetches are cancelled first — their terminal updates
// are silently suppressed, never delivered as failures. Every registered
// producer's assembler is then queried synchronously in registration order
// with an immutable copy of rc; producers returning nil opt out. Producers
// returning identical URL strings (exact match, no normalization) share a
// single fetch while each keeps its own auxiliary data.
//
// All loading updates are delivered synchronously before StartCycle
// returns; the fetches themselves run concurrently in the background,
// scoped to a context derived from ctx, and completion is observed only
// through the producers' handlers. StartCycle does not wait for them.
//
// An assembler producing an empty URL aborts only its own URL group; other
// groups still dispatch, and the error — wrapping [ErrInvalidArgument] —
// is returned after dispatch. Fields in rc.Extra are passed through to
// assemblers untouched, with a warning logged per unrecognized key.
func (p *Pool) StartCycle(ctx context.Context, rc RequestContext) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for key := range rc.Extra {
		p.logger.Warn("unrecognized request context field, passing through", "field", key)
	}
	rc = rc.clone()

	p.mu.Lock()
	// supersede the previous cycle before anything new is dispatched
	if p.cancel != nil {
		p.cancel()
	}
	cycleCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	producers := make([]Producer, len(p.producers))
	copy(producers, p.producers)
	p.mu.Unlock()

	// query assemblers in registration order, grouping by exact URL string
	order := make([]string, 0, len(producers))
	groups := make(map[string][]assignment, len(producers))
	for _, pr := range producers {
		req := pr.assemble(rc)
		if req == nil {
			p.logger.Debug("producer opted out of cycle", "name", pr.name)
			continue
		}
		if _, seen := groups[req.URL]; !seen {
			order = append(order, req.URL)
		}
		groups[req.URL] = append(groups[req.URL], assignment{producer: pr, data: req.Data})
	}

	var errs []error
	transports := make([]*transport.Transport, 0, len(order))
	for _, u := range order {
		t, err := transport.New(u, p.client, p.gate, p.logger)
		if err != nil {
			// abort this URL group only; other groups still dispatch
			errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidArgument, err))
			p.logger.Error("transport rejected",
				"url", u,
				"producers", len(groups[u]),
				"error", err,
			)
			continue
		}
		t.Observe(func(tu transport.Update) {
			p.feed.Publish(tu.URL, toStatusUpdate(tu))
		})
		for _, a := range groups[u] {
			handle := a.producer.handle
			_ = t.RegisterHandler(func(tu transport.Update) {
				handle(toStatusUpdate(tu))
			}, a.data)
		}
		transports = append(transports, t)
	}

	for _, t := range transports {
		t.Execute(cycleCtx)
	}

	p.logger.Debug("cycle dispatched",
		"transports", len(transports),
		"producers", len(producers),
		"reset", rc.Reset,
	)
	return errors.Join(errs...)
}

// Subscribe returns a channel receiving every [StatusUpdate] the pool
// delivers, across all producers and cycles, without auxiliary data.
//
// This is an observability stream for surfaces like the HTTP bridge; the
// producer contract is unaffected by subscribers. Slow subscribers miss
// updates rather than blocking delivery. Callers must [Pool.Unsubscribe]
// when done.
func (p *Pool) Subscribe() <-chan StatusUpdate {
	return p.feed.Subscribe()
}

// Unsubscribe removes a subscription created by [Pool.Subscribe] and
// closes its channel. Safe to call multiple times.
func (p *Pool) Unsubscribe(ch <-chan StatusUpdate) {
	p.feed.Unsubscribe(ch)
}

// Snapshot returns the latest [StatusUpdate] per URL the pool has fetched.
// Order is not guaranteed.
func (p *Pool) Snapshot() []StatusUpdate {
	return p.feed.All()
}

// Close cancels the in-flight cycle, suppressing its pending terminal
// updates, and releases idle connections. The pool remains usable; a
// subsequent [Pool.StartCycle] starts a fresh generation.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.client.Close()
}

// toStatusUpdate converts the internal transport event into the public
// status type.
func toStatusUpdate(tu transport.Update) StatusUpdate {
	su := StatusUpdate{
		Status: Status(tu.Status),
		URL:    tu.URL,
		Data:   tu.Data,
	}
	if su.Status == StatusLoading {
		return su
	}
	su.Content = string(tu.Body)
	if tu.StatusCode != 0 {
		su.Response = &HTTPResponse{OK: tu.OK, StatusCode: tu.StatusCode}
	}
	return su
}

package contentloader

import (
	"fmt"
	"net/url"
)

// RequestContext is the triggering payload for one coordination cycle.
//
// It carries a query-parameter collection (keys may repeat, insertion order
// is irrelevant), an optional reset flag, and opaque extra fields that are
// passed through to every assembler untouched. The [Pool] snapshots the
// context when a cycle starts; assemblers always see the same values.
type RequestContext struct {
	// Params is the query-parameter collection for this cycle.
	// A nil value is treated as empty.
	Params url.Values

	// Reset signals producers to restore their default state rather than
	// apply Params. Built-in assemblers such as [BaseURL] honor it; custom
	// assemblers are free to interpret it themselves.
	Reset bool

	// Extra holds fields the core does not recognize. They are forwarded to
	// assemblers unchanged; [Pool.StartCycle] logs a warning per key as a
	// forward-compatibility signal.
	Extra map[string]any
}

// clone returns a deep copy so a running cycle never observes caller mutation.
func (rc RequestContext) clone() RequestContext {
	cp := RequestContext{Reset: rc.Reset}
	if rc.Params != nil {
		cp.Params = make(url.Values, len(rc.Params))
		for k, vs := range rc.Params {
			cp.Params[k] = append([]string(nil), vs...)
		}
	}
	if rc.Extra != nil {
		cp.Extra = make(map[string]any, len(rc.Extra))
		for k, v := range rc.Extra {
			cp.Extra[k] = v
		}
	}
	return cp
}

// URLRequest is the result of a producer's assembler for one cycle.
type URLRequest struct {
	// URL is the target to fetch. Compared by exact string match for
	// deduplication — no normalization of parameter order or encoding.
	URL string

	// Data is an opaque auxiliary value round-tripped unchanged onto every
	// [StatusUpdate] delivered to this producer for this cycle. Use it to
	// correlate request intent (e.g. "append" vs "replace") across the
	// async boundary.
	Data any
}

// AssembleFunc computes the URL a producer wants fetched for a cycle.
//
// Returning nil opts the producer out of the cycle; it then receives no
// status updates for that cycle. The function must be idempotent given
// identical input and must not retain state across calls.
type AssembleFunc func(RequestContext) *URLRequest

// HandleFunc receives status updates for every cycle the producer's
// assembler participated in.
//
// The loading update is delivered synchronously from the goroutine calling
// [Pool.StartCycle]; terminal updates arrive from a background goroutine.
// Handlers must be safe for that and should be non-blocking. Panics are
// recovered and logged; they never crash the pool.
type HandleFunc func(StatusUpdate)

// Producer is a registered participant in coordination cycles: it supplies
// a URL-assembly function and receives status updates for the URLs it asked
// for. A Producer is immutable after creation via [NewProducer].
type Producer struct {
	name     string
	assemble AssembleFunc
	handle   HandleFunc
}

// Name returns the producer's display name used in logs.
// Empty if none was set via [WithName].
func (p Producer) Name() string {
	return p.name
}

// NewProducer creates a [Producer] from an assembler and a status handler.
//
// Both functions are required; a nil value is a contract violation and
// returns an error wrapping [ErrInvalidArgument] that names the offending
// property.
//
// Example:
//
//	p, err := contentloader.NewProducer(
//	    contentloader.MustBaseURL("https://example.com/api/teasers"),
//	    func(u contentloader.StatusUpdate) { apply(u) },
//	    contentloader.WithName("teaser-list"),
//	)
func NewProducer(assemble AssembleFunc, handle HandleFunc, opts ...ProducerOption) (Producer, error) {
	if assemble == nil {
		return Producer{}, fmt.Errorf("%w: producer url assembler must not be nil", ErrInvalidArgument)
	}
	if handle == nil {
		return Producer{}, fmt.Errorf("%w: producer status handler must not be nil", ErrInvalidArgument)
	}

	cfg := &producerConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Producer{}, err
		}
	}

	return Producer{
		name:     cfg.name,
		assemble: assemble,
		handle:   handle,
	}, nil
}

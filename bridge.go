package contentloader

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/vmihailenco/msgpack/v5"
)

const defaultSignalBuffer = 16

// Signal is a message from the embedding layer to the pool.
//
// The interface is sealed: the only implementations are [RegisterSignal]
// and [LoadSignal]. Signals replace the DOM event protocol of
// browser-hosted deployments with an explicit typed channel, so the pool
// itself never depends on any event system.
type Signal interface {
	signal()
}

// RegisterSignal registers a producer with the pool. The embedding layer
// emits it once per component instance, after the component is attached.
type RegisterSignal struct {
	Producer Producer
}

func (RegisterSignal) signal() {}

// LoadSignal starts a new coordination cycle with the given request
// context.
type LoadSignal struct {
	Context RequestContext
}

func (LoadSignal) signal() {}

// Bridge translates [Signal] values from the embedding layer into calls
// against a [Pool].
//
// Because signals cross an asynchronous boundary, contract violations the
// pool reports (invalid producers, malformed URLs) cannot propagate back
// to the sender; the bridge logs them instead. Embedders that need
// synchronous errors should call the pool directly.
type Bridge struct {
	pool    *Pool
	logger  *slog.Logger
	signals chan Signal
}

// NewBridge creates a [Bridge] for the given pool.
//
// A nil logger falls back to the pool's logger. Returns an error wrapping
// [ErrInvalidArgument] if pool is nil.
func NewBridge(pool *Pool, logger *slog.Logger) (*Bridge, error) {
	if pool == nil {
		return nil, fmt.Errorf("%w: bridge pool must not be nil", ErrInvalidArgument)
	}
	if logger == nil {
		logger = pool.logger
	}
	return &Bridge{
		pool:    pool,
		logger:  logger,
		signals: make(chan Signal, defaultSignalBuffer),
	}, nil
}

// Signals returns the channel the embedding layer sends signals on.
//
// Sends block once the buffer (16 signals) is full and [Bridge.Run] is not
// draining; surfaces that cannot block should send with a select.
func (b *Bridge) Signals() chan<- Signal {
	return b.signals
}

// Run consumes signals until ctx is cancelled, then returns nil.
//
// Cycles started by load signals are scoped to ctx: cancelling it cancels
// the in-flight generation, and each new load signal supersedes the
// previous one exactly as a direct [Pool.StartCycle] call would.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-b.signals:
			b.dispatch(ctx, sig)
		}
	}
}

func (b *Bridge) dispatch(ctx context.Context, sig Signal) {
	switch s := sig.(type) {
	case RegisterSignal:
		if err := b.pool.RegisterProducer(s.Producer); err != nil {
			b.logger.Error("producer registration rejected", "error", err)
		}
	case LoadSignal:
		if err := b.pool.StartCycle(ctx, s.Context); err != nil {
			b.logger.Error("cycle dispatch failed", "error", err)
		}
	default:
		b.logger.Warn("unknown signal ignored", "type", fmt.Sprintf("%T", sig))
	}
}

// loadSignalWire is the wire shape of a load-trigger payload crossing the
// host boundary. Params is a multi-map, so repeated keys survive the trip.
type loadSignalWire struct {
	Params map[string][]string `msgpack:"params" json:"params"`
	Reset  bool                `msgpack:"reset" json:"reset"`
	Extra  map[string]any      `msgpack:"extra,omitempty" json:"extra,omitempty"`
}

// EncodeLoadSignal serializes a [LoadSignal] to msgpack for transport
// between an embedding host and the bridge.
func EncodeLoadSignal(sig LoadSignal) ([]byte, error) {
	return msgpack.Marshal(loadSignalWire{
		Params: sig.Context.Params,
		Reset:  sig.Context.Reset,
		Extra:  sig.Context.Extra,
	})
}

// DecodeLoadSignal deserializes a msgpack payload produced by
// [EncodeLoadSignal] or an equivalent host-side encoder.
//
// Returns an error wrapping [ErrInvalidArgument] if the payload cannot be
// decoded.
func DecodeLoadSignal(data []byte) (LoadSignal, error) {
	var w loadSignalWire
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return LoadSignal{}, fmt.Errorf("%w: decode load signal: %v", ErrInvalidArgument, err)
	}
	return LoadSignal{Context: RequestContext{
		Params: url.Values(w.Params),
		Reset:  w.Reset,
		Extra:  w.Extra,
	}}, nil
}

// Package contentloader coordinates dynamic content fetches for
// independently authored UI components.
//
// Components register as producers: each supplies a URL-assembly function
// and a status handler. When a user interaction triggers a cycle, the pool
// queries every producer for a target URL, collapses identical URLs into a
// single fetch, cancels whatever the previous interaction left in flight,
// and fans each fetch's loading/loaded/failed updates back out to every
// producer that asked for that URL.
//
// # Quick Start
//
// Create a pool, register producers, and start cycles on interaction:
//
//	pool, _ := contentloader.New()
//	defer pool.Close()
//
//	p, _ := contentloader.NewProducer(
//	    contentloader.MustBaseURL("https://example.com/api/articles"),
//	    func(u contentloader.StatusUpdate) { render(u) },
//	    contentloader.WithName("article-list"),
//	)
//	_ = pool.RegisterProducer(p)
//
//	_ = pool.StartCycle(ctx, contentloader.RequestContext{
//	    Params: url.Values{"page": {"2"}},
//	})
//
// Each StartCycle supersedes the previous one: stale fetches are cancelled
// and their pending terminal updates are dropped, so no speculative request
// ever outlives the next user action.
//
// # URL Assemblers
//
// Assemblers turn the cycle's request context into the URL a producer
// wants fetched. Several built-ins are provided:
//
//   - [Static]: the same URL on every cycle
//   - [BaseURL]: merges cycle parameters into a base URL's query
//   - [Template]: renders a text/template against parameters and extras
//   - [SkipOnReset]: opts out of reset cycles
//   - [Tagged]: attaches auxiliary data that round-trips onto every update
//
// Custom assemblers implement the [AssembleFunc] type; returning nil opts
// the producer out of a cycle.
//
// # Signals
//
// The [Bridge] accepts [RegisterSignal] and [LoadSignal] values over a
// typed channel, decoupling the pool from whatever event mechanism the
// embedding layer uses. [EncodeLoadSignal] and [DecodeLoadSignal] provide
// a msgpack wire form for load triggers crossing a host boundary.
//
// # Architecture
//
// The package is backed by internal packages:
//
//   - internal/transport: single-URL fetch unit with multi-handler fan-out
//   - internal/feed: pub/sub status stream with latest-value snapshot
//   - internal/server: HTTP surface (load trigger, snapshot, SSE stream)
//
// The internal packages are not part of the public API and may change
// without notice.
package contentloader

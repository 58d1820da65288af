// Package server exposes the content loader over HTTP so browser hosts
// and other out-of-process surfaces can trigger cycles and observe status
// updates.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/helga-agentur/contentloader"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write.
	// This prevents goroutine leaks when clients are slow or disconnected.
	sseWriteTimeout = 5 * time.Second

	// maxLoadPayloadSize bounds load-trigger request bodies.
	maxLoadPayloadSize = 64 << 10 // 64KB
)

// Server handles HTTP requests for the content loader.
//
// Server provides three endpoints:
//   - POST /api/load: trigger a coordination cycle (JSON or msgpack payload)
//   - GET /api/status: latest status per URL as JSON
//   - GET /api/sse: Server-Sent Events stream of status updates
//
// Load triggers are forwarded as [contentloader.LoadSignal] values into a
// bridge, so supersession semantics match in-process cycle starts. The
// server is designed for graceful shutdown via context cancellation.
type Server struct {
	pool       *contentloader.Pool
	bridge     *contentloader.Bridge
	port       int
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// The server is not started until [Server.Start] is called; the bridge's
// Run loop must be driven by the caller.
func NewServer(pool *contentloader.Pool, bridge *contentloader.Bridge, port int, logger *slog.Logger) *Server {
	return &Server{
		pool:   pool,
		bridge: bridge,
		port:   port,
		logger: logger,
	}
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the
// server is listening. The server runs until the context is cancelled, at
// which point it initiates a graceful shutdown with a 5-second timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/load", s.handleLoad)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/sse", s.handleSSE)

	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler: mux,
		// BaseContext derives all request contexts from the server context,
		// so cancelling ctx also unblocks long-running SSE handlers.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleLoad accepts a load-trigger payload and forwards it to the bridge.
//
// The payload is decoded per Content-Type: application/msgpack (and
// application/x-msgpack) use the bridge's wire codec, anything else is
// parsed as JSON with the same shape: {"params": {...}, "reset": bool,
// "extra": {...}}.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxLoadPayloadSize))
	if err != nil {
		http.Error(w, "Failed to read payload", http.StatusBadRequest)
		return
	}

	sig, err := s.decodeLoad(r.Header.Get("Content-Type"), body)
	if err != nil {
		s.logger.Warn("rejected load payload", "error", err)
		http.Error(w, "Invalid load payload", http.StatusBadRequest)
		return
	}

	select {
	case s.bridge.Signals() <- sig:
		w.WriteHeader(http.StatusAccepted)
	case <-r.Context().Done():
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
	}
}

// decodeLoad parses a load payload according to its content type.
func (s *Server) decodeLoad(contentType string, body []byte) (contentloader.LoadSignal, error) {
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	switch mediaType {
	case "application/msgpack", "application/x-msgpack":
		return contentloader.DecodeLoadSignal(body)
	default:
		var wire struct {
			Params map[string][]string `json:"params"`
			Reset  bool                `json:"reset"`
			Extra  map[string]any      `json:"extra"`
		}
		if err := json.Unmarshal(body, &wire); err != nil {
			return contentloader.LoadSignal{}, fmt.Errorf("decode load signal: %w", err)
		}
		return contentloader.LoadSignal{Context: contentloader.RequestContext{
			Params: wire.Params,
			Reset:  wire.Reset,
			Extra:  wire.Extra,
		}}, nil
	}
}

// handleStatus returns the latest status per URL as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(s.pool.Snapshot()); err != nil {
		s.logger.Error("failed to encode status response", "error", err)
	}
}

// handleSSE streams status updates via Server-Sent Events.
//
// Write deadlines prevent goroutine leaks when clients are slow or
// disconnected; without them a blocked write would keep the handler from
// noticing shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := s.pool.Subscribe()
	defer s.pool.Unsubscribe(ch)

	// send the current snapshot first so late joiners see known state
	for _, update := range s.pool.Snapshot() {
		data, err := json.Marshal(update)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case update, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(update)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on both client disconnect and server shutdown
			return
		}
	}
}

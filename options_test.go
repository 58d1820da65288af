package contentloader

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
)

func TestNew_OptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"nil logger", WithLogger(nil)},
		{"nil http client", WithHTTPClient(nil)},
		{"negative concurrency", WithMaxConcurrency(-1)},
		{"zero subscriber buffer", WithSubscriberBuffer(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opt); err == nil {
				t.Errorf("New(%s) error = nil, want validation error", tt.name)
			}
		})
	}
}

func TestNew_ValidOptions(t *testing.T) {
	pool, err := New(
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithHTTPClient(http.DefaultClient),
		WithMaxConcurrency(8),
		WithSubscriberBuffer(10),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	pool.Close()
}

func TestNew_Defaults(t *testing.T) {
	pool, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer pool.Close()

	if pool.gate != nil {
		t.Error("default pool has a concurrency gate, want unlimited")
	}
}

func TestWithName_AppliesToProducer(t *testing.T) {
	p, err := NewProducer(Static("https://example.com"), func(StatusUpdate) {}, WithName("sidebar"))
	if err != nil {
		t.Fatalf("NewProducer() error = %v", err)
	}
	if got := p.Name(); got != "sidebar" {
		t.Errorf("Name() = %q, want %q", got, "sidebar")
	}
}

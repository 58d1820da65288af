package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		_, _ = w.Write([]byte("hello"))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	resp := client.Fetch(context.Background(), server.URL)
	if resp.Error != nil {
		t.Fatalf("Fetch() error = %v", resp.Error)
	}
	if resp.StatusCode != 200 || string(resp.Body) != "hello" {
		t.Errorf("Fetch() = %d %q, want 200 hello", resp.StatusCode, resp.Body)
	}
	if resp.Latency <= 0 {
		t.Error("Fetch() latency not recorded")
	}
}

func TestClientFetch_BodyLimit(t *testing.T) {
	big := strings.Repeat("x", maxResponseBodySize+1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(big))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	resp := client.Fetch(context.Background(), server.URL)
	if len(resp.Body) != maxResponseBodySize {
		t.Errorf("body length = %d, want limit %d", len(resp.Body), maxResponseBodySize)
	}
}

func TestClientFetch_ConnectionRefused(t *testing.T) {
	client := NewClient()
	defer client.Close()

	resp := client.Fetch(context.Background(), "http://127.0.0.1:1/")
	if resp.Error == nil {
		t.Fatal("Fetch() error = nil, want connection error")
	}
	if resp.StatusCode != 0 {
		t.Errorf("status code = %d, want 0", resp.StatusCode)
	}
}

func TestClientFetch_Cancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := client.Fetch(ctx, server.URL)
	if !errors.Is(resp.Error, context.Canceled) {
		t.Errorf("Fetch() error = %v, want context.Canceled", resp.Error)
	}
}

func TestClientClose_Idempotent(t *testing.T) {
	client := NewClient()
	client.Close()
	client.Close()
}

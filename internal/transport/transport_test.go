package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type capture struct {
	mu      sync.Mutex
	updates []Update
	done    chan Update
}

func newCapture() *capture {
	return &capture{done: make(chan Update, 8)}
}

func (c *capture) handle(up Update) {
	c.mu.Lock()
	c.updates = append(c.updates, up)
	c.mu.Unlock()
	if up.Status != StatusLoading {
		c.done <- up
	}
}

func (c *capture) all() []Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]Update, len(c.updates))
	copy(cp, c.updates)
	return cp
}

func (c *capture) waitTerminal(t *testing.T) Update {
	t.Helper()
	select {
	case up := <-c.done:
		return up
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for terminal update")
		return Update{}
	}
}

func TestNew_Validation(t *testing.T) {
	client := NewClient()
	defer client.Close()

	if _, err := New("", client, nil, nil); err == nil {
		t.Error("New(empty url) error = nil, want error")
	}
	if _, err := New("https://example.com", nil, nil, nil); err == nil {
		t.Error("New(nil client) error = nil, want error")
	}
}

func TestRegisterHandler_NilHandler(t *testing.T) {
	client := NewClient()
	defer client.Close()

	tr, err := New("https://example.com", client, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := tr.RegisterHandler(nil, nil); err == nil {
		t.Error("RegisterHandler(nil) error = nil, want error")
	}
}

func TestExecute_SuccessLifecycle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("content"))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	tr, err := New(server.URL, client, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec := newCapture()
	if err := tr.RegisterHandler(rec.handle, "aux"); err != nil {
		t.Fatalf("RegisterHandler() error = %v", err)
	}

	tr.Execute(context.Background())

	// loading is synchronous
	got := rec.all()
	if len(got) != 1 || got[0].Status != StatusLoading {
		t.Fatalf("updates after Execute = %+v, want one loading update", got)
	}
	if got[0].Data != "aux" {
		t.Errorf("loading data = %v, want %q", got[0].Data, "aux")
	}

	up := rec.waitTerminal(t)
	if up.Status != StatusLoaded || !up.OK || up.StatusCode != 200 {
		t.Errorf("terminal = %+v, want loaded ok 200", up)
	}
	if string(up.Body) != "content" {
		t.Errorf("body = %q, want %q", up.Body, "content")
	}
	if up.Data != "aux" {
		t.Errorf("terminal data = %v, want %q", up.Data, "aux")
	}
}

func TestExecute_NonOKStatusFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("oops"))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	tr, err := New(server.URL, client, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rec := newCapture()
	_ = tr.RegisterHandler(rec.handle, nil)

	tr.Execute(context.Background())
	up := rec.waitTerminal(t)
	if up.Status != StatusFailed || up.OK || up.StatusCode != 500 {
		t.Errorf("terminal = %+v, want failed 500", up)
	}
	if string(up.Body) != "oops" {
		t.Errorf("body = %q, want best-effort error body", up.Body)
	}
}

func TestExecute_NetworkErrorFails(t *testing.T) {
	client := NewClient()
	defer client.Close()

	// connection refused: no server ever listened here
	tr, err := New("http://127.0.0.1:1/unreachable", client, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rec := newCapture()
	_ = tr.RegisterHandler(rec.handle, nil)

	tr.Execute(context.Background())
	up := rec.waitTerminal(t)
	if up.Status != StatusFailed {
		t.Errorf("terminal status = %q, want %q", up.Status, StatusFailed)
	}
	if up.StatusCode != 0 {
		t.Errorf("status code = %d, want 0 (no response received)", up.StatusCode)
	}
}

func TestExecute_CancellationSuppressesTerminal(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	tr, err := New(server.URL, client, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rec := newCapture()
	_ = tr.RegisterHandler(rec.handle, nil)

	ctx, cancel := context.WithCancel(context.Background())
	tr.Execute(ctx)
	<-started
	cancel()

	select {
	case up := <-rec.done:
		t.Errorf("received terminal %+v after cancellation, want none", up)
	case <-time.After(200 * time.Millisecond):
	}

	got := rec.all()
	if len(got) != 1 || got[0].Status != StatusLoading {
		t.Errorf("updates = %+v, want only the loading update", got)
	}
}

func TestExecute_DuplicateHandlersEachInvoked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	tr, err := New(server.URL, client, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	first := newCapture()
	second := newCapture()
	_ = tr.RegisterHandler(first.handle, "one")
	_ = tr.RegisterHandler(second.handle, "two")

	tr.Execute(context.Background())
	u1 := first.waitTerminal(t)
	u2 := second.waitTerminal(t)

	if u1.Data != "one" || u2.Data != "two" {
		t.Errorf("data = %v / %v, want per-registration values one / two", u1.Data, u2.Data)
	}
}

func TestExecute_PanickingHandlerDoesNotStopDelivery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	tr, err := New(server.URL, client, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_ = tr.RegisterHandler(func(Update) { panic("boom") }, nil)
	rec := newCapture()
	_ = tr.RegisterHandler(rec.handle, nil)

	tr.Execute(context.Background())
	if up := rec.waitTerminal(t); up.Status != StatusLoaded {
		t.Errorf("terminal status = %q, want %q despite earlier panic", up.Status, StatusLoaded)
	}
}

func TestExecute_ObserverSeesNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	tr, err := New(server.URL, client, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	observed := newCapture()
	tr.Observe(observed.handle)
	_ = tr.RegisterHandler(func(Update) {}, "aux")

	tr.Execute(context.Background())
	if up := observed.waitTerminal(t); up.Data != nil {
		t.Errorf("observer data = %v, want nil", up.Data)
	}
}

func TestExecute_GateBoundsConcurrency(t *testing.T) {
	var mu sync.Mutex
	active, peak := 0, 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		time.Sleep(30 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	gate := make(chan struct{}, 1)
	caps := make([]*capture, 4)
	for i := range caps {
		caps[i] = newCapture()
		tr, err := New(server.URL, client, gate, nil)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		_ = tr.RegisterHandler(caps[i].handle, nil)
		tr.Execute(context.Background())
	}
	for _, c := range caps {
		c.waitTerminal(t)
	}

	mu.Lock()
	defer mu.Unlock()
	if peak > 1 {
		t.Errorf("peak concurrent fetches = %d, want at most 1", peak)
	}
}

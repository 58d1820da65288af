// Package feed provides a thread-safe fan-out of values with a
// latest-value snapshot, used by the pool to expose its status stream to
// observers such as the HTTP bridge surface.
package feed

import "sync"

// Feed is an in-memory publish-subscribe fan-out.
//
// Values are keyed; a new value for a key replaces the previous one in the
// snapshot while every subscriber receives each published value. Delivery
// is non-blocking: if a subscriber's buffer is full, the value is dropped
// for that subscriber to prevent blocking the publish path.
type Feed[T any] struct {
	buffer int

	mu     sync.RWMutex
	latest map[string]T

	subMu       sync.RWMutex
	subscribers map[chan T]struct{}
}

// New creates a [Feed] whose subscriber channels buffer up to buffer
// values.
func New[T any](buffer int) *Feed[T] {
	return &Feed[T]{
		buffer:      buffer,
		latest:      make(map[string]T),
		subscribers: make(map[chan T]struct{}),
	}
}

// Publish stores v as the latest value for key and notifies all
// subscribers.
func (f *Feed[T]) Publish(key string, v T) {
	f.mu.Lock()
	f.latest[key] = v
	f.mu.Unlock()

	f.subMu.RLock()
	defer f.subMu.RUnlock()
	for ch := range f.subscribers {
		select {
		case ch <- v:
		default:
			// subscriber is slow, drop the value
		}
	}
}

// All returns a snapshot of the latest value per key.
//
// The returned slice is a copy; order is not guaranteed.
func (f *Feed[T]) All() []T {
	f.mu.RLock()
	defer f.mu.RUnlock()

	values := make([]T, 0, len(f.latest))
	for _, v := range f.latest {
		values = append(values, v)
	}
	return values
}

// Subscribe creates a new subscription and returns a channel receiving
// every subsequently published value.
//
// Caller must call [Feed.Unsubscribe] when done to prevent resource leaks.
func (f *Feed[T]) Subscribe() <-chan T {
	ch := make(chan T, f.buffer)

	f.subMu.Lock()
	f.subscribers[ch] = struct{}{}
	f.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (f *Feed[T]) Unsubscribe(ch <-chan T) {
	f.subMu.Lock()
	defer f.subMu.Unlock()

	for subCh := range f.subscribers {
		if subCh == ch {
			delete(f.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

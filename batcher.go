package vfskit

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is the quiet period after the last event before a
// pending batch is flushed to subscribers.
const DefaultDebounceWindow = 5 * time.Millisecond

// Batcher coalesces raw per-operation ChangeEvents into debounced batches.
//
// It is a two-state machine: Idle (no timer armed, pending empty) and
// Pending (timer armed). Every incoming event appends to the pending buffer
// and re-arms the timer, so a burst of rapid mutations collapses into a
// single delivered batch. Events are delivered in arrival order; no
// de-duplication is performed, duplicate Changed events for one path within
// a window are delivered as-is.
type Batcher struct {
	mu          sync.Mutex
	window      time.Duration
	pending     []ChangeEvent
	timer       *time.Timer // nil while Idle
	subscribers map[int]func([]ChangeEvent)
	nextID      int
	closed      bool
}

// NewBatcher creates a Batcher with the given debounce window. A
// non-positive window falls back to DefaultDebounceWindow.
func NewBatcher(window time.Duration) *Batcher {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Batcher{
		window:      window,
		subscribers: make(map[int]func([]ChangeEvent)),
	}
}

// Add appends events to the pending buffer and (re)starts the debounce
// timer. Safe for concurrent use.
func (b *Batcher) Add(events ...ChangeEvent) {
	if len(events) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.pending = append(b.pending, events...)
	if b.timer == nil {
		// Idle -> Pending
		b.timer = time.AfterFunc(b.window, b.flush)
	} else {
		// Pending: push the deadline out
		b.timer.Reset(b.window)
	}
}

// Subscribe registers fn to receive each flushed batch. The returned
// function unsubscribes; it is safe to call more than once.
func (b *Batcher) Subscribe(fn func([]ChangeEvent)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
}

// Flush delivers any pending events immediately, without waiting for the
// debounce deadline.
func (b *Batcher) Flush() {
	b.flush()
}

// Close flushes pending events and stops the timer. Events added after
// Close are dropped.
func (b *Batcher) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()

	b.flush()
}

// flush atomically takes the pending buffer and delivers it as one batch.
// Pending -> Idle transition.
func (b *Batcher) flush() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	batch := b.pending
	b.pending = nil
	subscribers := make([]func([]ChangeEvent), 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		subscribers = append(subscribers, fn)
	}
	b.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	for _, fn := range subscribers {
		fn(batch)
	}
}

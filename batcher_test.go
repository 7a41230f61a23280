package vfskit

import (
	"sync"
	"testing"
	"time"
)

// batchCollector records delivered batches for assertions.
type batchCollector struct {
	mu      sync.Mutex
	batches [][]ChangeEvent
}

func (c *batchCollector) deliver(batch []ChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, batch)
}

func (c *batchCollector) snapshot() [][]ChangeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]ChangeEvent, len(c.batches))
	copy(out, c.batches)
	return out
}

func TestBatcher(t *testing.T) {
	t.Run("coalesces a burst into one batch", func(t *testing.T) {
		b := NewBatcher(20 * time.Millisecond)
		defer b.Close()
		var c batchCollector
		b.Subscribe(c.deliver)

		for i := 0; i < 5; i++ {
			b.Add(ChangeEvent{Kind: Changed, Path: "/f"})
		}

		time.Sleep(100 * time.Millisecond)

		batches := c.snapshot()
		if len(batches) != 1 {
			t.Fatalf("expected 1 batch, got %d", len(batches))
		}
		if len(batches[0]) != 5 {
			t.Errorf("expected 5 events in batch, got %d", len(batches[0]))
		}
	})

	t.Run("preserves arrival order without de-duplication", func(t *testing.T) {
		b := NewBatcher(10 * time.Millisecond)
		defer b.Close()
		var c batchCollector
		b.Subscribe(c.deliver)

		b.Add(
			ChangeEvent{Kind: Created, Path: "/a"},
			ChangeEvent{Kind: Changed, Path: "/a"},
			ChangeEvent{Kind: Changed, Path: "/a"},
		)
		time.Sleep(50 * time.Millisecond)

		batches := c.snapshot()
		if len(batches) != 1 {
			t.Fatalf("expected 1 batch, got %d", len(batches))
		}
		got := batches[0]
		if len(got) != 3 || got[0].Kind != Created || got[1].Kind != Changed || got[2].Kind != Changed {
			t.Errorf("unexpected batch contents: %v", got)
		}
	})

	t.Run("separate bursts yield separate batches", func(t *testing.T) {
		b := NewBatcher(10 * time.Millisecond)
		defer b.Close()
		var c batchCollector
		b.Subscribe(c.deliver)

		b.Add(ChangeEvent{Kind: Created, Path: "/a"})
		time.Sleep(50 * time.Millisecond)
		b.Add(ChangeEvent{Kind: Deleted, Path: "/a"})
		time.Sleep(50 * time.Millisecond)

		if got := len(c.snapshot()); got != 2 {
			t.Errorf("expected 2 batches, got %d", got)
		}
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		b := NewBatcher(10 * time.Millisecond)
		defer b.Close()
		var c batchCollector
		unsubscribe := b.Subscribe(c.deliver)
		unsubscribe()

		b.Add(ChangeEvent{Kind: Created, Path: "/a"})
		time.Sleep(50 * time.Millisecond)

		if got := len(c.snapshot()); got != 0 {
			t.Errorf("expected no batches after unsubscribe, got %d", got)
		}
	})

	t.Run("close flushes pending events", func(t *testing.T) {
		b := NewBatcher(time.Hour)
		var c batchCollector
		b.Subscribe(c.deliver)

		b.Add(ChangeEvent{Kind: Created, Path: "/a"})
		b.Close()

		batches := c.snapshot()
		if len(batches) != 1 || len(batches[0]) != 1 {
			t.Fatalf("expected the pending event flushed on close, got %v", batches)
		}
	})
}

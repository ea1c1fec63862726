// Package broker provides the in-memory job queue and the worker pool
// that drains it. Enqueue deduplicates on the idempotency key, so
// duplicate submissions never produce a second execution even though
// delivery itself is at-least-once.
package broker

import (
	"context"
	"sync"

	"articleforge/internal/ports"
)

// Memory is a channel-backed broker with key-level dedup. A key stays in
// the seen set after completion; re-running a finished job would violate
// the terminal, read-only contract of PUBLISH.
type Memory struct {
	mu    sync.Mutex
	seen  map[string]bool
	queue chan string
}

var _ ports.Broker = (*Memory)(nil)

// NewMemory returns a broker with the given queue capacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 64
	}
	return &Memory{
		seen:  make(map[string]bool),
		queue: make(chan string, capacity),
	}
}

// Enqueue adds a key for processing. Returns false when the key already
// has an active or completed entry, or when the queue is full.
func (b *Memory) Enqueue(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seen[key] {
		return false
	}
	select {
	case b.queue <- key:
		b.seen[key] = true
		return true
	default:
		return false
	}
}

// Dequeue blocks until a key is available or the context is done.
func (b *Memory) Dequeue(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case key := <-b.queue:
		return key, true
	}
}

// Ack marks a delivery handled. The seen set is intentionally left
// alone: completion does not reopen the key.
func (b *Memory) Ack(string) {}

// Pending reports how many keys wait in the queue.
func (b *Memory) Pending() int {
	return len(b.queue)
}

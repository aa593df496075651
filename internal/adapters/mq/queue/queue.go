// Package queue buffers rating writes on their way to the media server.
//
// The engine applies ratings optimistically and enqueues the write; a
// worker flushes the queue in order, so the display never waits on the
// wire.
package queue

import (
	"context"
	"sync"

	"github.com/dtt-git/stash-battle/internal/domain/match"
	"github.com/dtt-git/stash-battle/pkg/metrics"
)

// defaultCapacity bounds the queue; a full queue rejects new writes.
const defaultCapacity = 1024

// Write is the payload type flowing through the queue.
type Write = match.RatingWrite

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a write to the queue.
	// Returns false if the queue is full or closed and the write was dropped.
	Enqueue(ctx context.Context, w Write) bool

	// Dequeue returns a channel delivering writes in enqueue order.
	// The channel closes after Close once the backlog drains.
	Dequeue(ctx context.Context) <-chan Write

	// Len returns the current number of queued writes.
	Len(ctx context.Context) int

	// Close stops intake. Queued writes remain readable.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	writes   chan Write
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.writes = make(chan Write, q.capacity)

	metrics.UpdateWriterQueueCapacity(q.capacity)
	metrics.UpdateWriterQueueSize(0)

	return q
}

// Enqueue adds a write to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, w Write) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.writes <- w:
		metrics.UpdateWriterQueueSize(len(q.writes))
		return true
	case <-ctx.Done():
		return false // context cancelled
	default:
		return false // queue is full
	}
}

// Dequeue returns a channel that will receive writes as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Write {
	out := make(chan Write)
	go func() {
		defer close(out)
		for w := range q.writes {
			select {
			case out <- w:
				metrics.UpdateWriterQueueSize(len(q.writes))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued writes.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.writes)
	metrics.UpdateWriterQueueSize(size)
	return size
}

// Close stops intake and lets consumers drain what is left.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	close(q.writes)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Package worker flushes queued rating writes to the media server.
//
// A single writer drains the queue, so writes land in the order the
// engine produced them. A later write for the same scene always
// supersedes an earlier one on the server.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/dtt-git/stash-battle/internal/adapters/mq/queue"
	"github.com/dtt-git/stash-battle/internal/domain/scene"
	"github.com/dtt-git/stash-battle/pkg/logger"
	"github.com/dtt-git/stash-battle/pkg/metrics"
)

// defaultWriteTimeout caps one flush call so a hung server cannot wedge
// the shutdown drain.
const defaultWriteTimeout = 10 * time.Second

// Write is what the writer reads off the queue.
type Write = queue.Write

// Sink lands a rating on the system of record.
type Sink interface {
	SetRating(ctx context.Context, id string, value int) (scene.Scene, error)
}

// Resolver clears the optimistic pending marker once a write resolves,
// successfully or not.
type Resolver interface {
	ResolvePending(id string)
}

// Queue defines how the writer receives writes.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Write
}

// Writer drains the queue into the sink.
type Writer struct {
	queue    Queue
	sink     Sink
	resolver Resolver

	timeout time.Duration

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewWriter creates a new writer with configuration options.
func NewWriter(q Queue, sink Sink, resolver Resolver, opts ...Option) *Writer {
	w := &Writer{
		queue:    q,
		sink:     sink,
		resolver: resolver,
		timeout:  defaultWriteTimeout,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("writer"),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run drains the queue until it closes and empties, the context cancels,
// or Shutdown gives up waiting. Closing the queue before Shutdown gives
// a clean drain: the write channel empties before it closes.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.done)

	writes := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case wr, ok := <-writes:
			if !ok {
				// Channel closed and drained, writer should stop
				return
			}
			w.flush(ctx, wr)
		}
	}
}

// Shutdown waits for the drain to finish. On timeout the remaining
// writes are abandoned; their optimistic cache values stay in place.
func (w *Writer) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		select {
		case <-w.shutdown:
			// Already signalled
		default:
			close(w.shutdown)
		}
		w.logger.Warn(context.Background(), "shutdown timed out, abandoning queued writes")
		return fmt.Errorf("writer shutdown: %w", ctx.Err())
	}
}

// flush lands one write and resolves its pending marker.
func (w *Writer) flush(ctx context.Context, wr Write) {
	callCtx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	_, err := w.sink.SetRating(callCtx, wr.SceneID, wr.Rating)
	w.resolver.ResolvePending(wr.SceneID)

	if err != nil {
		metrics.RecordRatingWriteError()
		w.logger.Warn(ctx, "rating write failed, optimistic value stands",
			logger.String("scene_id", wr.SceneID),
			logger.Int("rating", wr.Rating),
			logger.Error(err),
		)
		return
	}

	metrics.RecordRatingWrite()
	metrics.RecordRatingWriteLatency(float64(time.Since(start).Milliseconds()))
}

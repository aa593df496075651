package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/dtt-git/stash-battle/internal/adapters/mq/queue"
	worker "github.com/dtt-git/stash-battle/internal/adapters/mq/worker"
	scene "github.com/dtt-git/stash-battle/internal/domain/scene"
	logging "github.com/dtt-git/stash-battle/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logging.Init()
	if err != nil {
		panic(err)
	}
}

// Mock implementations for testing.
type mockSink struct {
	mu      sync.Mutex
	order   []string
	ratings map[string]int
	errs    map[string]error
	block   chan struct{}
}

func newMockSink() *mockSink {
	return &mockSink{
		ratings: make(map[string]int),
		errs:    make(map[string]error),
	}
}

func (m *mockSink) SetRating(ctx context.Context, id string, value int) (scene.Scene, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return scene.Scene{}, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err, exists := m.errs[id]; exists {
		return scene.Scene{}, err
	}

	m.order = append(m.order, id)
	m.ratings[id] = value
	return scene.Scene{ID: id}.WithRating(value), nil
}

func (m *mockSink) setError(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[id] = err
}

func (m *mockSink) rating(id string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.ratings[id]
	return v, ok
}

func (m *mockSink) flushed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

type mockResolver struct {
	mu       sync.Mutex
	resolved []string
}

func (m *mockResolver) ResolvePending(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved = append(m.resolved, id)
}

func (m *mockResolver) all() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resolved...)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestWriter(t *testing.T) {
	convey.Convey("Given a writer over a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		sink := newMockSink()
		resolver := &mockResolver{}
		w := worker.NewWriter(q, sink, resolver)
		ctx := context.Background()

		convey.Convey("When writes flow through", func() {
			go w.Run(ctx)

			q.Enqueue(ctx, queue.Write{SceneID: "a", Rating: 61})
			q.Enqueue(ctx, queue.Write{SceneID: "b", Rating: 42})
			q.Enqueue(ctx, queue.Write{SceneID: "a", Rating: 63})

			convey.Convey("Then the sink receives them in enqueue order", func() {
				convey.So(waitFor(func() bool { return len(sink.flushed()) == 3 }), convey.ShouldBeTrue)
				convey.So(sink.flushed(), convey.ShouldResemble, []string{"a", "b", "a"})

				v, ok := sink.rating("a")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(v, convey.ShouldEqual, 63)
			})

			convey.Convey("Then every pending marker resolves", func() {
				convey.So(waitFor(func() bool { return len(resolver.all()) == 3 }), convey.ShouldBeTrue)
			})

			convey.Convey("Then shutdown after close returns promptly", func() {
				convey.So(waitFor(func() bool { return q.Len(ctx) == 0 }), convey.ShouldBeTrue)
				convey.So(q.Close(), convey.ShouldBeNil)

				sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
				defer cancel()
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the sink rejects a write", func() {
			sink.setError("bad", errors.New("server said no"))
			go w.Run(ctx)

			q.Enqueue(ctx, queue.Write{SceneID: "bad", Rating: 50})
			q.Enqueue(ctx, queue.Write{SceneID: "good", Rating: 70})

			convey.Convey("Then the marker resolves anyway and later writes continue", func() {
				convey.So(waitFor(func() bool { return len(resolver.all()) == 2 }), convey.ShouldBeTrue)
				convey.So(resolver.all(), convey.ShouldResemble, []string{"bad", "good"})

				_, ok := sink.rating("bad")
				convey.So(ok, convey.ShouldBeFalse)
				v, ok := sink.rating("good")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(v, convey.ShouldEqual, 70)
			})
		})

		convey.Convey("When the queue closes with a backlog", func() {
			q.Enqueue(ctx, queue.Write{SceneID: "a", Rating: 10})
			q.Enqueue(ctx, queue.Write{SceneID: "b", Rating: 20})
			q.Enqueue(ctx, queue.Write{SceneID: "c", Rating: 30})
			convey.So(q.Close(), convey.ShouldBeNil)

			go w.Run(ctx)

			convey.Convey("Then shutdown waits for the full drain", func() {
				sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
				defer cancel()
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(sink.flushed(), convey.ShouldResemble, []string{"a", "b", "c"})
			})
		})

		convey.Convey("When the sink hangs", func() {
			sink.block = make(chan struct{})
			slow := worker.NewWriter(q, sink, resolver, worker.WithWriteTimeout(10*time.Second))
			go slow.Run(ctx)

			q.Enqueue(ctx, queue.Write{SceneID: "stuck", Rating: 40})

			convey.Convey("Then shutdown gives up after its deadline", func() {
				sctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
				defer cancel()

				err := slow.Shutdown(sctx)
				convey.So(err, convey.ShouldNotBeNil)
				close(sink.block)
			})
		})
	})
}

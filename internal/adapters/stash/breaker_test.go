package stash

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/dtt-git/stash-battle/internal/domain/scene"
)

type stubGateway struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (s *stubGateway) bump() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func (s *stubGateway) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubGateway) Find(_ context.Context, _ scene.Filter, _ string, _ int) ([]scene.Scene, int, error) {
	if err := s.bump(); err != nil {
		return nil, 0, err
	}
	return []scene.Scene{{ID: "x"}}, 1, nil
}

func (s *stubGateway) Count(_ context.Context, _ scene.Filter) (int, error) {
	if err := s.bump(); err != nil {
		return 0, err
	}
	return 3, nil
}

func (s *stubGateway) List(_ context.Context, _ scene.Filter, _ string, _ int) ([]scene.Scene, error) {
	if err := s.bump(); err != nil {
		return nil, err
	}
	return []scene.Scene{{ID: "x"}}, nil
}

func (s *stubGateway) SetRating(_ context.Context, id string, value int) (scene.Scene, error) {
	if err := s.bump(); err != nil {
		return scene.Scene{}, err
	}
	return scene.Scene{ID: id}.WithRating(value), nil
}

func TestBreaker_PassThrough(t *testing.T) {
	ctx := context.Background()
	st := &stubGateway{}
	b := NewBreaker(st)

	items, count, err := b.Find(ctx, scene.Filter{}, SortRating, AllScenes)
	if err != nil || count != 1 || len(items) != 1 {
		t.Fatalf("find = %v/%d/%v", items, count, err)
	}

	n, err := b.Count(ctx, scene.Filter{})
	if err != nil || n != 3 {
		t.Fatalf("count = %d, %v", n, err)
	}

	updated, err := b.SetRating(ctx, "x", 50)
	if err != nil {
		t.Fatalf("set rating: %v", err)
	}
	if v, ok := updated.RatingValue(); !ok || v != 50 {
		t.Fatalf("rating = %d/%v, want 50", v, ok)
	}

	if b.State() != "closed" {
		t.Fatalf("state = %q, want closed", b.State())
	}
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	ctx := context.Background()
	st := &stubGateway{err: errors.New("down")}
	b := NewBreaker(st,
		WithBreakerMinRequests(3),
		WithBreakerFailureRatio(0.5),
		WithBreakerOpenTimeout(time.Minute),
	)

	for i := 0; i < 3; i++ {
		if _, _, err := b.Find(ctx, scene.Filter{}, "", AllScenes); err == nil {
			t.Fatal("expected a gateway failure")
		}
	}
	if b.State() != "open" {
		t.Fatalf("state = %q, want open after repeated failures", b.State())
	}

	before := st.callCount()
	_, _, err := b.Find(ctx, scene.Filter{}, "", AllScenes)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want ErrOpenState", err)
	}
	if st.callCount() != before {
		t.Fatal("open circuit still reached the gateway")
	}
}

package stash

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/dtt-git/stash-battle/internal/domain/scene"
	"github.com/dtt-git/stash-battle/pkg/logger"
	"github.com/dtt-git/stash-battle/pkg/metrics"
)

var _ Gateway = (*Breaker)(nil)

type breakerConfig struct {
	minRequests  uint32
	failureRatio float64
	openTimeout  time.Duration
}

// BreakerOption configures the circuit breaker.
type BreakerOption func(*breakerConfig)

// WithBreakerMinRequests sets how many requests a window needs before
// the failure ratio can trip the breaker.
func WithBreakerMinRequests(n uint32) BreakerOption {
	return func(c *breakerConfig) {
		if n > 0 {
			c.minRequests = n
		}
	}
}

// WithBreakerFailureRatio sets the failure ratio that opens the circuit.
func WithBreakerFailureRatio(r float64) BreakerOption {
	return func(c *breakerConfig) {
		if r > 0 && r <= 1 {
			c.failureRatio = r
		}
	}
}

// WithBreakerOpenTimeout sets how long the circuit stays open before a
// half-open probe.
func WithBreakerOpenTimeout(d time.Duration) BreakerOption {
	return func(c *breakerConfig) {
		if d > 0 {
			c.openTimeout = d
		}
	}
}

// Breaker wraps a Gateway with a circuit breaker so a dead media server
// fails fast instead of queueing timeouts.
type Breaker struct {
	gw  Gateway
	cb  *gobreaker.CircuitBreaker[any]
	log logger.Logger
}

// NewBreaker wraps the given gateway.
func NewBreaker(gw Gateway, opts ...BreakerOption) *Breaker {
	cfg := breakerConfig{
		minRequests:  5,
		failureRatio: 0.6,
		openTimeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Breaker{
		gw:  gw,
		log: logger.Get().Named("breaker"),
	}

	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "media-server",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     cfg.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.failureRatio
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(stateValue(to))
			b.log.Warn(context.Background(), "media server breaker state change",
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})

	return b
}

// State returns the breaker state as exposed on the stats surface.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

type findResult struct {
	items []scene.Scene
	count int
}

func (b *Breaker) Find(ctx context.Context, f scene.Filter, sort string, limit int) ([]scene.Scene, int, error) {
	res, err := b.cb.Execute(func() (any, error) {
		items, count, err := b.gw.Find(ctx, f, sort, limit)
		if err != nil {
			return nil, err
		}
		return findResult{items: items, count: count}, nil
	})
	if err != nil {
		return nil, 0, b.wrap(err)
	}
	r := res.(findResult)
	return r.items, r.count, nil
}

func (b *Breaker) Count(ctx context.Context, f scene.Filter) (int, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.gw.Count(ctx, f)
	})
	if err != nil {
		return 0, b.wrap(err)
	}
	return res.(int), nil
}

func (b *Breaker) List(ctx context.Context, f scene.Filter, sort string, limit int) ([]scene.Scene, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.gw.List(ctx, f, sort, limit)
	})
	if err != nil {
		return nil, b.wrap(err)
	}
	return res.([]scene.Scene), nil
}

func (b *Breaker) SetRating(ctx context.Context, id string, value int) (scene.Scene, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.gw.SetRating(ctx, id, value)
	})
	if err != nil {
		return scene.Scene{}, b.wrap(err)
	}
	return res.(scene.Scene), nil
}

func (b *Breaker) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("media server unavailable: %w", err)
	}
	return err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 2
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 0
	}
}

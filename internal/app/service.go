// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
//
// The service owns the session state. Every operation that can touch it
// runs under one lock, so turns, verdicts, and mode changes serialize
// no matter how the API interleaves them.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dtt-git/stash-battle/internal/adapters/cache"
	writequeue "github.com/dtt-git/stash-battle/internal/adapters/mq/queue"
	writeworker "github.com/dtt-git/stash-battle/internal/adapters/mq/worker"
	"github.com/dtt-git/stash-battle/internal/adapters/session"
	"github.com/dtt-git/stash-battle/internal/adapters/stash"
	"github.com/dtt-git/stash-battle/internal/domain/match"
	"github.com/dtt-git/stash-battle/internal/domain/scene"
	"github.com/dtt-git/stash-battle/pkg/logger"
	"github.com/dtt-git/stash-battle/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize    = 256
	defaultDrainTimeout = 5 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// Sentinel errors for callers that map them onto the API surface.
var (
	ErrNotStarted  = errors.New("service not started")
	ErrInvalidMode = errors.New("invalid mode")
)

// Service implements the battle engine behind the HTTP API.
type Service struct {
	mu sync.RWMutex

	// Core components
	gateway  stash.Gateway
	cache    cache.Cache
	sessions *session.Store
	selector *match.Selector
	queue    writequeue.Queue
	writer   *writeworker.Writer

	// Session state
	state  *match.State
	filter scene.Filter

	// Configuration
	queueSize    int
	drainTimeout time.Duration
	writeTimeout time.Duration
	breakerProbe func() string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSelector replaces the default selector. Tests use it to pin seeds.
func WithSelector(sel *match.Selector) Option {
	return func(s *Service) {
		if sel != nil {
			s.selector = sel
		}
	}
}

// WithQueueSize sets the capacity of the rating write queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDrainTimeout sets how long Stop waits for queued writes to land.
func WithDrainTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.drainTimeout = d
		}
	}
}

// WithWriteTimeout caps a single rating write call.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithBreakerProbe wires the circuit breaker state into the stats surface.
func WithBreakerProbe(probe func() string) Option {
	return func(s *Service) {
		if probe != nil {
			s.breakerProbe = probe
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service over the given adapters.
func New(gw stash.Gateway, c cache.Cache, sessions *session.Store, opts ...Option) *Service {
	s := &Service{
		gateway:      gw,
		cache:        c,
		sessions:     sessions,
		selector:     match.NewSelector(),
		queueSize:    defaultQueueSize,
		drainTimeout: defaultDrainTimeout,
		writeTimeout: defaultWriteTimeout,
		logger:       nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the persisted session and brings up the write pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("engine")
	}

	st, err := s.sessions.Load(ctx)
	if err != nil {
		s.logger.Warn(ctx, "stored session unreadable, starting fresh", logger.Error(err))
		st = match.NewState()
	}
	s.state = st

	f, err := s.sessions.LoadFilter(ctx)
	if err != nil {
		s.logger.Warn(ctx, "stored filter unreadable, starting unfiltered", logger.Error(err))
		f = scene.Filter{}
	}
	s.filter = f

	s.queue = writequeue.NewInMemoryQueue(writequeue.WithCapacity(s.queueSize))
	s.writer = writeworker.NewWriter(s.queue, s.gateway, s.cache,
		writeworker.WithWriteTimeout(s.writeTimeout),
	)
	// The writer outlives request contexts; Stop drains it explicitly.
	go s.writer.Run(context.Background())

	s.started = true
	s.logger.Info(ctx, "battle engine started",
		logger.String("mode", string(st.Mode)),
		logger.String("filter_key", string(f.Key())),
		logger.Bool("resumed", st.Showing()),
	)

	return nil
}

// Stop drains the write queue and shuts the engine down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping battle engine...")

	// Closing the queue first lets the writer drain the backlog.
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.writer != nil {
		drainCtx, cancel := context.WithTimeout(ctx, s.drainTimeout)
		if err := s.writer.Shutdown(drainCtx); err != nil {
			s.logger.Warn(ctx, "writer drain incomplete", logger.Error(err))
		}
		cancel()
	}

	s.started = false
	s.logger.Info(ctx, "battle engine stopped")
}

// Next returns the turn to display. A pair already on display comes back
// unchanged; otherwise the engine advances to a fresh one.
func (s *Service) Next(ctx context.Context) (match.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return match.Turn{}, ErrNotStarted
	}

	return s.nextLocked(ctx)
}

// Decide folds a verdict into the session and returns the next display
// state, either the placement the verdict produced or a fresh pair.
func (s *Service) Decide(ctx context.Context, winner scene.Side) (match.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return match.Turn{}, ErrNotStarted
	}
	if !winner.Valid() {
		return match.Turn{}, match.ErrInvalidSide
	}
	if !s.state.Showing() {
		return match.Turn{}, match.ErrNoPair
	}

	sets, err := s.loadSetsLocked(ctx)
	if err != nil {
		return match.Turn{}, err
	}

	mode := s.state.Mode
	settled, writes, err := s.selector.Decide(s.state, sets, winner)
	if err != nil {
		return match.Turn{}, err
	}

	metrics.RecordMatchDecided(string(mode), string(winner))
	s.applyWritesLocked(ctx, writes)

	if settled != nil {
		s.saveLocked(ctx)
		metrics.RecordPairServed(string(mode), string(settled.Status))
		return *settled, nil
	}

	return s.advanceLocked(ctx)
}

// SwitchMode changes the matchmaking flavor and serves the first turn of
// the new run.
func (s *Service) SwitchMode(ctx context.Context, mode scene.Mode) (match.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return match.Turn{}, ErrNotStarted
	}
	if !mode.Valid() {
		return match.Turn{}, ErrInvalidMode
	}

	s.selector.SwitchMode(s.state, mode)
	s.logger.Info(ctx, "mode switched", logger.String("mode", string(mode)))

	return s.advanceLocked(ctx)
}

// SwitchFilter moves the session to a new filter scope and serves the
// first turn under it.
func (s *Service) SwitchFilter(ctx context.Context, f scene.Filter) (match.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return match.Turn{}, ErrNotStarted
	}

	s.filter = f
	if err := s.sessions.SaveFilter(ctx, f); err != nil {
		s.logger.Warn(ctx, "filter not persisted", logger.Error(err))
	}
	s.selector.SwitchFilter(s.state, f.Key())
	s.logger.Info(ctx, "filter switched", logger.String("filter_key", string(f.Key())))

	return s.advanceLocked(ctx)
}

// Reset wipes the run and starts over, keeping the mode and the filter.
func (s *Service) Reset(ctx context.Context) (match.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return match.Turn{}, ErrNotStarted
	}

	s.selector.ResetSession(s.state)
	if err := s.sessions.Reset(ctx); err != nil {
		s.logger.Warn(ctx, "stored session not cleared", logger.Error(err))
	}
	s.logger.Info(ctx, "session reset")

	return s.advanceLocked(ctx)
}

// Refresh drops both cache buckets and refetches before serving. The
// displayed pair, if any, stays on display.
func (s *Service) Refresh(ctx context.Context) (match.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return match.Turn{}, ErrNotStarted
	}

	s.cache.InvalidateAll(ctx)
	if _, err := s.loadSetsLocked(ctx); err != nil {
		return match.Turn{}, err
	}

	return s.nextLocked(ctx)
}

// Session returns a snapshot of the session state.
func (s *Service) Session() match.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return *match.NewState()
	}
	return *s.state
}

// Filter returns the active filter.
func (s *Service) Filter() scene.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// GetStats returns engine statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started": s.started,
	}
	if !s.started {
		return stats
	}

	cs := s.cache.Stats()
	remaining := s.selector.Pool().Remaining()

	stats["mode"] = string(s.state.Mode)
	stats["filter_key"] = string(s.filter.Key())
	stats["showing"] = s.state.Showing()
	stats["win_streak"] = s.state.WinStreak
	stats["total_count"] = s.state.TotalCount
	stats["pool"] = map[string]interface{}{
		"remaining": remaining,
	}
	stats["cache"] = map[string]interface{}{
		"all_scenes":           cs.AllScenes,
		"all_age_seconds":      int(cs.AllAge.Seconds()),
		"all_stale":            cs.AllStale,
		"filtered_scenes":      cs.FilteredScenes,
		"filtered_key":         string(cs.FilteredKey),
		"filtered_age_seconds": int(cs.FilteredAge.Seconds()),
		"filtered_stale":       cs.FilteredStale,
		"pending_writes":       cs.PendingWrites,
	}
	stats["writer"] = map[string]interface{}{
		"queued":   s.queue.Len(context.Background()),
		"capacity": s.queueSize,
	}
	if s.breakerProbe != nil {
		stats["breaker"] = s.breakerProbe()
	}

	// Update metrics
	metrics.UpdatePoolRemaining(remaining)
	metrics.UpdatePendingWrites(cs.PendingWrites)

	return stats
}

// nextLocked re-serves the displayed pair or advances to a fresh turn.
func (s *Service) nextLocked(ctx context.Context) (match.Turn, error) {
	if turn, ok := s.selector.CurrentTurn(s.state); ok {
		metrics.RecordPairServed(string(s.state.Mode), string(turn.Status))
		return turn, nil
	}
	return s.advanceLocked(ctx)
}

// advanceLocked draws the next turn. An exhausted pool forces one
// synchronous refetch of the active scope and a single retry; a second
// exhaustion means nothing matches anymore.
func (s *Service) advanceLocked(ctx context.Context) (match.Turn, error) {
	sets, err := s.loadSetsLocked(ctx)
	if err != nil {
		return match.Turn{}, err
	}

	before := s.selector.Pool().Remaining()
	turn, writes := s.selector.NextPair(s.state, sets)
	if s.selector.Pool().Remaining() > before {
		metrics.RecordPoolCycle()
	}

	if turn.Status == scene.StatusExhausted {
		metrics.RecordPoolExhaustion()
		s.invalidateScopeLocked(ctx)
		if sets, err = s.loadSetsLocked(ctx); err != nil {
			return match.Turn{}, err
		}

		before = s.selector.Pool().Remaining()
		turn, writes = s.selector.NextPair(s.state, sets)
		if s.selector.Pool().Remaining() > before {
			metrics.RecordPoolCycle()
		}
		if turn.Status == scene.StatusExhausted {
			metrics.RecordPoolExhaustion()
			turn.Message = exhaustedMessage(s.filter)
		}
	}

	s.applyWritesLocked(ctx, writes)
	s.saveLocked(ctx)

	metrics.UpdatePoolRemaining(s.selector.Pool().Remaining())
	metrics.RecordPairServed(string(s.state.Mode), string(turn.Status))

	return turn, nil
}

// loadSetsLocked assembles the scene sets for the selector. With no
// filter the library doubles as the filtered view, saving a fetch.
func (s *Service) loadSetsLocked(ctx context.Context) (match.Sets, error) {
	all, _, err := s.cache.All(ctx)
	if err != nil {
		return match.Sets{}, err
	}

	filtered := all
	if !s.filter.IsZero() {
		if filtered, _, err = s.cache.Scenes(ctx, s.filter); err != nil {
			return match.Sets{}, err
		}
	}

	return match.Sets{All: all, Filtered: filtered, Key: s.filter.Key()}, nil
}

// applyWritesLocked lands rating movements: optimistically in the cache,
// asynchronously on the server. A rejected enqueue resolves its marker
// on the spot so the optimistic value is not stuck pending forever.
func (s *Service) applyWritesLocked(ctx context.Context, writes []match.RatingWrite) {
	for _, w := range writes {
		s.cache.ApplyRatingUpdate(w.SceneID, w.Rating)
		if !s.queue.Enqueue(ctx, w) {
			s.cache.ResolvePending(w.SceneID)
			metrics.RecordRatingWriteError()
			s.logger.Warn(ctx, "rating write dropped, queue unavailable",
				logger.String("scene_id", w.SceneID),
				logger.Int("rating", w.Rating),
			)
		}
	}
}

// invalidateScopeLocked forces a refetch of whichever bucket feeds the
// current scope.
func (s *Service) invalidateScopeLocked(ctx context.Context) {
	if s.filter.IsZero() {
		s.cache.InvalidateAll(ctx)
		return
	}
	s.cache.InvalidateFiltered(ctx)
}

// saveLocked persists the session after a transition. Persistence
// failures stay in the log; the in-memory session plays on.
func (s *Service) saveLocked(ctx context.Context) {
	if err := s.sessions.Save(ctx, s.state); err != nil {
		s.logger.Warn(ctx, "session save failed", logger.Error(err))
	}
}

// exhaustedMessage names what ran dry: the whole library, or the slice
// the filter carved out of it.
func exhaustedMessage(f scene.Filter) string {
	if f.IsZero() {
		return "no scenes left to judge"
	}
	return "no scenes match the current filter"
}

// Package session persists the engine's match state between runs.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtt-git/stash-battle/internal/adapters/storage/bolt"
	"github.com/dtt-git/stash-battle/internal/domain/match"
	"github.com/dtt-git/stash-battle/internal/domain/scene"
	"github.com/dtt-git/stash-battle/pkg/logger"
	"github.com/dtt-git/stash-battle/pkg/metrics"
)

const (
	bucket    = "session"
	key       = "current"
	filterKey = "filter"
)

// Persister is the storage surface the session store needs. bolt.Store
// satisfies it.
type Persister interface {
	Put(ctx context.Context, bucket, key string, value any) error
	Get(ctx context.Context, bucket, key string, out any) error
	Delete(ctx context.Context, bucket, key string) error
}

// Store keeps the single session record. Every transition overwrites it
// wholesale; there is never more than one session.
type Store struct {
	db  Persister
	log logger.Logger
}

// NewStore creates a session store over the given persister.
func NewStore(db Persister) *Store {
	return &Store{
		db:  db,
		log: logger.Get().Named("session"),
	}
}

// Save overwrites the session record.
func (s *Store) Save(ctx context.Context, st *match.State) error {
	if err := s.db.Put(ctx, bucket, key, st); err != nil {
		metrics.RecordSessionError()
		return fmt.Errorf("save session: %w", err)
	}
	metrics.RecordSessionSave()
	return nil
}

// Load returns the stored session, or a fresh one when none exists.
func (s *Store) Load(ctx context.Context) (*match.State, error) {
	var st match.State
	err := s.db.Get(ctx, bucket, key, &st)
	switch {
	case errors.Is(err, bolt.ErrNotFound):
		return match.NewState(), nil
	case err != nil:
		metrics.RecordSessionError()
		return nil, fmt.Errorf("load session: %w", err)
	}

	// A record with no valid mode predates the current schema.
	if !st.Mode.Valid() {
		s.log.Warn(ctx, "discarding session record with unknown mode",
			logger.String("mode", string(st.Mode)))
		return match.NewState(), nil
	}

	metrics.RecordSessionLoad()
	return &st, nil
}

// SaveFilter overwrites the active filter record. The session record
// carries only the filter's key; the criteria live here so a restart can
// rebuild the filtered view.
func (s *Store) SaveFilter(ctx context.Context, f scene.Filter) error {
	if err := s.db.Put(ctx, bucket, filterKey, f); err != nil {
		metrics.RecordSessionError()
		return fmt.Errorf("save filter: %w", err)
	}
	return nil
}

// LoadFilter returns the stored filter, or the zero filter when none
// exists.
func (s *Store) LoadFilter(ctx context.Context) (scene.Filter, error) {
	var f scene.Filter
	err := s.db.Get(ctx, bucket, filterKey, &f)
	switch {
	case errors.Is(err, bolt.ErrNotFound):
		return scene.Filter{}, nil
	case err != nil:
		metrics.RecordSessionError()
		return scene.Filter{}, fmt.Errorf("load filter: %w", err)
	}
	return f, nil
}

// Reset deletes the stored session. The filter record stays; a reset
// starts the run over without dropping the user's view.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.db.Delete(ctx, bucket, key); err != nil {
		metrics.RecordSessionError()
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}

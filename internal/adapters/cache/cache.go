// Package cache is the two-tier, filter-aware scene cache. It keeps two
// buckets, the full rating-ordered library and a single filtered slot,
// serving them stale-while-revalidate over the expensive listing call.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dtt-git/stash-battle/internal/adapters/storage/bolt"
	"github.com/dtt-git/stash-battle/internal/domain/scene"
	"github.com/dtt-git/stash-battle/pkg/logger"
	"github.com/dtt-git/stash-battle/pkg/metrics"
)

const (
	bucketAll      = "all"
	bucketFiltered = "filtered"

	// storageBucket is the bolt bucket mirroring both entries.
	storageBucket = "cache"

	// defaultMaxAge is how old an entry may grow before a serve
	// triggers revalidation. Staleness never evicts.
	defaultMaxAge = 5 * time.Minute
)

// Source loads scene sets from the system of record.
type Source interface {
	FetchAll(ctx context.Context) ([]scene.Scene, int, error)
	FetchFiltered(ctx context.Context, f scene.Filter) ([]scene.Scene, int, error)
}

// Persister is the durable tier. bolt.Store satisfies it.
type Persister interface {
	Put(ctx context.Context, bucket, key string, value any) error
	Get(ctx context.Context, bucket, key string, out any) error
	Delete(ctx context.Context, bucket, key string) error
}

// Cache is what the engine consumes.
type Cache interface {
	All(ctx context.Context) ([]scene.Scene, int, error)
	Scenes(ctx context.Context, f scene.Filter) ([]scene.Scene, int, error)
	ApplyRatingUpdate(id string, value int)
	ResolvePending(id string)
	InvalidateFiltered(ctx context.Context)
	InvalidateAll(ctx context.Context)
	Stats() Stats
}

// Stats is a point-in-time snapshot for the stats surface.
type Stats struct {
	AllScenes      int
	AllAge         time.Duration
	AllStale       bool
	FilteredScenes int
	FilteredKey    scene.FilterKey
	FilteredAge    time.Duration
	FilteredStale  bool
	PendingWrites  int
}

// entry is one cached bucket, the unit both tiers store.
type entry struct {
	Bucket    string          `json:"bucket"`
	Items     []scene.Scene   `json:"items"`
	Count     int             `json:"count"`
	FilterKey scene.FilterKey `json:"filter_key,omitempty"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// SceneCache implements Cache over a memory tier and an optional
// persistent tier. All mutation swaps whole slices, so a caller holding
// a returned slice keeps a stable snapshot.
type SceneCache struct {
	source Source
	store  Persister
	log    logger.Logger

	maxAge time.Duration
	now    func() time.Time

	mu        sync.Mutex
	all       *entry
	filtered  *entry
	activeKey scene.FilterKey

	// Generation counters implement stale-write rejection: an
	// invalidation bumps them and orphans any in-flight refresh.
	allGen      uint64
	filteredGen uint64

	refreshingAll      bool
	refreshingFiltered bool

	// pending holds optimistic ratings for writes still in flight;
	// they overlay anything a fetch brings back until resolved.
	pending map[string]int
}

// New creates a cache over the given source.
func New(source Source, opts ...Option) *SceneCache {
	c := &SceneCache{
		source:  source,
		maxAge:  defaultMaxAge,
		now:     time.Now,
		pending: make(map[string]int),
		log:     logger.Get().Named("cache"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// All returns the full library in rating-descending order. Cold misses
// block on the gateway; warm entries return immediately, triggering one
// background refetch when stale.
func (c *SceneCache) All(ctx context.Context) ([]scene.Scene, int, error) {
	c.mu.Lock()
	if e := c.entryAllLocked(ctx); e != nil {
		items, count := e.Items, e.Count
		metrics.RecordCacheHit(bucketAll)
		if c.staleLocked(e) {
			metrics.RecordCacheStaleServe(bucketAll)
			c.spawnAllRefreshLocked()
		}
		c.mu.Unlock()
		return items, count, nil
	}
	c.mu.Unlock()

	metrics.RecordCacheMiss(bucketAll)

	items, count, err := c.source.FetchAll(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch all scenes: %w", err)
	}

	c.mu.Lock()
	e := c.commitAllLocked(ctx, items, count)
	items, count = e.Items, e.Count
	c.mu.Unlock()

	return items, count, nil
}

// Scenes returns the set for the given filter. A cached slot under any
// other key is a full miss, never partially reused.
func (c *SceneCache) Scenes(ctx context.Context, f scene.Filter) ([]scene.Scene, int, error) {
	key := f.Key()

	c.mu.Lock()
	c.activeKey = key
	if e := c.entryFilteredLocked(ctx, key); e != nil {
		items, count := e.Items, e.Count
		metrics.RecordCacheHit(bucketFiltered)
		if c.staleLocked(e) {
			metrics.RecordCacheStaleServe(bucketFiltered)
			c.spawnFilteredRefreshLocked(f)
		}
		c.mu.Unlock()
		return items, count, nil
	}
	c.mu.Unlock()

	metrics.RecordCacheMiss(bucketFiltered)

	items, count, err := c.source.FetchFiltered(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch filtered scenes: %w", err)
	}

	// Commit only if the caller's key is still the active one; the
	// fetched data goes back to the caller either way.
	c.mu.Lock()
	if c.activeKey == key {
		c.commitFilteredLocked(ctx, key, items, count)
	}
	c.mu.Unlock()

	return items, count, nil
}

// ApplyRatingUpdate patches an optimistic rating into both buckets and
// marks the write pending. The all bucket repositions to keep its order
// invariant; the filtered bucket patches in place so the pool's view of
// the order never shifts.
func (c *SceneCache) ApplyRatingUpdate(id string, value int) {
	ctx := context.Background()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending[id] = value
	metrics.UpdatePendingWrites(len(c.pending))

	if c.all != nil {
		items := patchScene(c.all.Items, id, value)
		scene.SortByRating(items)
		e := &entry{Bucket: bucketAll, Items: items, Count: c.all.Count, FetchedAt: c.all.FetchedAt}
		c.all = e
		c.persistLocked(ctx, bucketAll, e)
		metrics.UpdateScenesRated(scene.CountRated(items))
	}

	if c.filtered != nil {
		items := patchScene(c.filtered.Items, id, value)
		e := &entry{
			Bucket:    bucketFiltered,
			Items:     items,
			Count:     c.filtered.Count,
			FilterKey: c.filtered.FilterKey,
			FetchedAt: c.filtered.FetchedAt,
		}
		c.filtered = e
		c.persistLocked(ctx, bucketFiltered, e)
	}
}

// ResolvePending clears the pending marker for id once its gateway
// write has resolved, successfully or not.
func (c *SceneCache) ResolvePending(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pending, id)
	metrics.UpdatePendingWrites(len(c.pending))
}

// InvalidateFiltered drops the filtered slot from both tiers.
func (c *SceneCache) InvalidateFiltered(ctx context.Context) {
	c.mu.Lock()
	c.filtered = nil
	c.filteredGen++
	c.mu.Unlock()

	c.dropPersisted(ctx, bucketFiltered)
	metrics.UpdateCacheEntryScenes(bucketFiltered, 0)
}

// InvalidateAll drops everything from both tiers.
func (c *SceneCache) InvalidateAll(ctx context.Context) {
	c.mu.Lock()
	c.all = nil
	c.filtered = nil
	c.allGen++
	c.filteredGen++
	c.mu.Unlock()

	c.dropPersisted(ctx, bucketAll)
	c.dropPersisted(ctx, bucketFiltered)
	metrics.UpdateCacheEntryScenes(bucketAll, 0)
	metrics.UpdateCacheEntryScenes(bucketFiltered, 0)
}

// Stats reports the cache's current shape.
func (c *SceneCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{PendingWrites: len(c.pending)}
	if c.all != nil {
		s.AllScenes = len(c.all.Items)
		s.AllAge = c.now().Sub(c.all.FetchedAt)
		s.AllStale = c.staleLocked(c.all)
	}
	if c.filtered != nil {
		s.FilteredScenes = len(c.filtered.Items)
		s.FilteredKey = c.filtered.FilterKey
		s.FilteredAge = c.now().Sub(c.filtered.FetchedAt)
		s.FilteredStale = c.staleLocked(c.filtered)
	}
	return s
}

// entryAllLocked returns the all bucket, promoting from the persistent
// tier when memory is empty.
func (c *SceneCache) entryAllLocked(ctx context.Context) *entry {
	if c.all != nil {
		return c.all
	}
	if c.store == nil {
		return nil
	}

	var e entry
	if err := c.store.Get(ctx, storageBucket, bucketAll, &e); err != nil {
		if !errors.Is(err, bolt.ErrNotFound) {
			metrics.RecordPersistTierError()
			c.log.Warn(ctx, "persistent tier read failed", logger.String("bucket", bucketAll), logger.Error(err))
		}
		return nil
	}

	c.all = &e
	return c.all
}

// entryFilteredLocked returns the filtered slot when it matches key.
func (c *SceneCache) entryFilteredLocked(ctx context.Context, key scene.FilterKey) *entry {
	if c.filtered != nil {
		if c.filtered.FilterKey == key {
			return c.filtered
		}
		return nil
	}
	if c.store == nil {
		return nil
	}

	var e entry
	if err := c.store.Get(ctx, storageBucket, bucketFiltered, &e); err != nil {
		if !errors.Is(err, bolt.ErrNotFound) {
			metrics.RecordPersistTierError()
			c.log.Warn(ctx, "persistent tier read failed", logger.String("bucket", bucketFiltered), logger.Error(err))
		}
		return nil
	}
	if e.FilterKey != key {
		return nil
	}

	c.filtered = &e
	return c.filtered
}

func (c *SceneCache) staleLocked(e *entry) bool {
	return c.now().Sub(e.FetchedAt) > c.maxAge
}

func (c *SceneCache) spawnAllRefreshLocked() {
	if c.refreshingAll {
		return
	}
	c.refreshingAll = true
	gen := c.allGen
	go c.refreshAll(gen)
}

func (c *SceneCache) spawnFilteredRefreshLocked(f scene.Filter) {
	if c.refreshingFiltered {
		return
	}
	c.refreshingFiltered = true
	gen := c.filteredGen
	go c.refreshFiltered(f, gen)
}

// refreshAll revalidates the all bucket. It runs detached from the call
// that noticed the staleness; the generation check at commit drops the
// result when an invalidation happened in between.
func (c *SceneCache) refreshAll(gen uint64) {
	ctx := context.Background()
	items, count, err := c.source.FetchAll(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshingAll = false

	if err != nil {
		c.log.Warn(ctx, "background refresh of the all bucket failed", logger.Error(err))
		return
	}
	if gen != c.allGen {
		metrics.RecordCacheRefreshDrop()
		return
	}

	c.commitAllLocked(ctx, items, count)
	metrics.RecordCacheRefresh(bucketAll)
}

func (c *SceneCache) refreshFiltered(f scene.Filter, gen uint64) {
	ctx := context.Background()
	key := f.Key()
	items, count, err := c.source.FetchFiltered(ctx, f)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshingFiltered = false

	if err != nil {
		c.log.Warn(ctx, "background refresh of the filtered bucket failed",
			logger.String("filter_key", string(key)), logger.Error(err))
		return
	}
	if gen != c.filteredGen || key != c.activeKey {
		metrics.RecordCacheRefreshDrop()
		return
	}

	c.commitFilteredLocked(ctx, key, items, count)
	metrics.RecordCacheRefresh(bucketFiltered)
}

func (c *SceneCache) commitAllLocked(ctx context.Context, items []scene.Scene, count int) *entry {
	items = c.overlayPendingLocked(items)
	scene.SortByRating(items)

	e := &entry{Bucket: bucketAll, Items: items, Count: count, FetchedAt: c.now()}
	c.all = e
	c.persistLocked(ctx, bucketAll, e)

	metrics.UpdateCacheEntryScenes(bucketAll, len(items))
	metrics.UpdateScenesTotal(len(items))
	metrics.UpdateScenesRated(scene.CountRated(items))

	return e
}

func (c *SceneCache) commitFilteredLocked(ctx context.Context, key scene.FilterKey, items []scene.Scene, count int) {
	items = c.overlayPendingLocked(items)

	e := &entry{Bucket: bucketFiltered, Items: items, Count: count, FilterKey: key, FetchedAt: c.now()}
	c.filtered = e
	c.persistLocked(ctx, bucketFiltered, e)

	metrics.UpdateCacheEntryScenes(bucketFiltered, len(items))
}

// overlayPendingLocked patches in-flight optimistic ratings over freshly
// fetched items, so a slow fetch cannot clobber a just-applied rating.
func (c *SceneCache) overlayPendingLocked(items []scene.Scene) []scene.Scene {
	if len(c.pending) == 0 {
		return items
	}

	patched := make([]scene.Scene, len(items))
	copy(patched, items)
	for i := range patched {
		if v, ok := c.pending[patched[i].ID]; ok {
			patched[i] = patched[i].WithRating(v)
		}
	}
	return patched
}

func (c *SceneCache) persistLocked(ctx context.Context, key string, e *entry) {
	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, storageBucket, key, e); err != nil {
		metrics.RecordPersistTierError()
		c.log.Warn(ctx, "persistent tier write failed", logger.String("bucket", key), logger.Error(err))
	}
}

func (c *SceneCache) dropPersisted(ctx context.Context, key string) {
	if c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, storageBucket, key); err != nil {
		metrics.RecordPersistTierError()
		c.log.Warn(ctx, "persistent tier delete failed", logger.String("bucket", key), logger.Error(err))
	}
}

func patchScene(items []scene.Scene, id string, value int) []scene.Scene {
	patched := make([]scene.Scene, len(items))
	copy(patched, items)
	if i := scene.IndexOf(patched, id); i >= 0 {
		patched[i] = patched[i].WithRating(value)
	}
	return patched
}

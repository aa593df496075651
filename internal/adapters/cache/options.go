package cache

import "time"

// Option configures the cache.
type Option func(*SceneCache)

// WithPersister attaches a durable tier. Without one the cache is
// memory-only.
func WithPersister(store Persister) Option {
	return func(c *SceneCache) {
		c.store = store
	}
}

// WithMaxAge sets how old an entry may grow before serves revalidate.
func WithMaxAge(d time.Duration) Option {
	return func(c *SceneCache) {
		if d > 0 {
			c.maxAge = d
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *SceneCache) {
		if now != nil {
			c.now = now
		}
	}
}

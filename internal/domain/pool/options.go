// Package pool implements the shuffled, no-repeat walk over the filtered
// scene set.
package pool

import "math/rand"

// Option applies a configuration option to the shuffle pool.
type Option func(*shufflePool)

// WithSeed fixes the shuffle order for reproducible runs.
func WithSeed(seed int64) Option {
	return func(p *shufflePool) {
		p.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic seed for reproducible sampling
	}
}

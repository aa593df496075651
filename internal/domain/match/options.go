package match

import (
	"math/rand"

	pool "github.com/dtt-git/stash-battle/internal/domain/pool"
)

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithPool substitutes the sampling pool.
func WithPool(p pool.Pool) Option {
	return func(sel *Selector) {
		if p != nil {
			sel.pool = p
		}
	}
}

// WithSeed fixes the opponent-choice randomness for reproducible runs.
func WithSeed(seed int64) Option {
	return func(sel *Selector) {
		sel.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic seed for reproducible selection
	}
}

// WithReach tunes how many positions the Swiss opponent window spans on
// each side of the left scene.
func WithReach(reach int) Option {
	return func(sel *Selector) {
		if reach > 0 {
			sel.reach = reach
		}
	}
}

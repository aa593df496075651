// Package pool implements the shuffled, no-repeat walk over the filtered
// scene set.
package pool

import (
	"math/rand"
	"sync"
	"time"

	scene "github.com/dtt-git/stash-battle/internal/domain/scene"
)

// Pool serves each available scene exactly once per cycle.
type Pool interface {
	// Next returns the next unserved scene from scenes under key. A
	// finished cycle reshuffles into a new one transparently; ok is false
	// only when no scene is available at all. Exhaustion is a status, not
	// an error. Changing the key starts a fresh scope: the removal set
	// and shuffle order are discarded.
	Next(scenes []scene.Scene, key scene.FilterKey) (s scene.Scene, ok bool)

	// Remove drops id from the current scope. Removal survives a refresh
	// of the same key, so a background refetch cannot resurrect a scene
	// judged after the refetch started.
	Remove(id string)

	// Reset discards the shuffle order and cursor but keeps the removal
	// set. Used on mode switches.
	Reset()

	// Clear wipes the whole pool state, removal set included.
	Clear()

	// Remaining reports how many scenes are left in the current cycle.
	Remaining() int
}

// shufflePool implements Pool with a Fisher-Yates order and a cursor.
type shufflePool struct {
	mu         sync.Mutex
	key        scene.FilterKey
	order      []scene.Scene
	cursor     int
	removed    map[string]struct{}
	lastServed string
	rng        *rand.Rand
}

// NewShufflePool creates a new pool with configuration options.
func NewShufflePool(opts ...Option) Pool {
	p := &shufflePool{
		removed: make(map[string]struct{}),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // sampling order needs no crypto strength
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Next implements the cycle walk:
//
//  1. A key change clears the removal set and the order.
//  2. available = scenes minus removed; empty available is EMPTY.
//  3. No order yet: shuffle available, cursor 0.
//  4. Cursor ran off the end: reshuffle available for a new cycle; if the
//     new first scene is the one served last and more than one remains,
//     swap it away so no scene shows twice back-to-back.
//  5. Serve order[cursor], advance.
func (p *shufflePool) Next(scenes []scene.Scene, key scene.FilterKey) (scene.Scene, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if key != p.key {
		p.key = key
		p.removed = make(map[string]struct{})
		p.order = nil
		p.cursor = 0
		p.lastServed = ""
	}

	available := p.available(scenes)
	if len(available) == 0 {
		return scene.Scene{}, false
	}

	if p.order == nil {
		p.order = p.shuffle(available)
		p.cursor = 0
	}

	if p.cursor >= len(p.order) {
		p.order = p.shuffle(available)
		p.cursor = 0
		if len(p.order) > 1 && p.order[0].ID == p.lastServed {
			j := 1 + p.rng.Intn(len(p.order)-1)
			p.order[0], p.order[j] = p.order[j], p.order[0]
		}
	}

	s := p.order[p.cursor]
	p.cursor++
	p.lastServed = s.ID
	return s, true
}

// Remove splices id out of the live order and records it so no refresh of
// the same scope can bring it back.
func (p *shufflePool) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.removed[id] = struct{}{}

	for i := range p.order {
		if p.order[i].ID == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			if i < p.cursor {
				p.cursor--
			}
			break
		}
	}
}

// Reset discards the order and cursor, keeping removals and scope key.
func (p *shufflePool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.order = nil
	p.cursor = 0
	p.lastServed = ""
}

// Clear wipes everything, starting the pool over.
func (p *shufflePool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.key = ""
	p.order = nil
	p.cursor = 0
	p.removed = make(map[string]struct{})
	p.lastServed = ""
}

// Remaining reports the unserved count of the current cycle.
func (p *shufflePool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cursor >= len(p.order) {
		return 0
	}
	return len(p.order) - p.cursor
}

// available filters scenes against the removal set.
func (p *shufflePool) available(scenes []scene.Scene) []scene.Scene {
	out := make([]scene.Scene, 0, len(scenes))
	for _, s := range scenes {
		if _, gone := p.removed[s.ID]; gone {
			continue
		}
		out = append(out, s)
	}
	return out
}

// shuffle returns a Fisher-Yates shuffled copy of items.
func (p *shufflePool) shuffle(items []scene.Scene) []scene.Scene {
	out := make([]scene.Scene, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := p.rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

package match

import (
	"math/rand"
	"time"

	pool "github.com/dtt-git/stash-battle/internal/domain/pool"
	scene "github.com/dtt-git/stash-battle/internal/domain/scene"
)

// defaultReach is how many positions above and below the left scene the
// Swiss opponent window spans.
const defaultReach = 5

// Selector produces pairs and folds verdicts into the session state.
// It owns the sampling pool; callers own the scene sets and persistence.
type Selector struct {
	pool  pool.Pool
	rng   *rand.Rand
	reach int
}

// NewSelector creates a selector with configuration options.
func NewSelector(opts ...Option) *Selector {
	sel := &Selector{
		pool:  pool.NewShufflePool(),
		reach: defaultReach,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // opponent choice needs no crypto strength
	}

	for _, opt := range opts {
		opt(sel)
	}

	return sel
}

// Pool exposes the selector's sampling pool for stats reporting.
func (sel *Selector) Pool() pool.Pool { return sel.pool }

// CurrentTurn rebuilds the turn for a pair already on display, so asking
// again does not advance the pool. The streak rides with the champion in
// the left slot; every other pair shows none.
func (sel *Selector) CurrentTurn(st *State) (Turn, bool) {
	if !st.Showing() {
		return Turn{}, false
	}

	turn := Turn{
		Left:      st.Pair.Left,
		Right:     st.Pair.Right,
		LeftRank:  st.Ranks.Left,
		RightRank: st.Ranks.Right,
		Status:    scene.StatusPair,
	}
	if st.Champion != nil && st.Pair.Left.ID == st.Champion.ID {
		turn.Streak = intPtr(st.WinStreak)
	}

	return turn, true
}

// NextPair advances the state machine to the next displayable turn.
// Returned writes (bottom-out settles) must be applied by the caller.
// The state is mutated in place; persist it wholesale afterwards.
func (sel *Selector) NextPair(st *State, sets Sets) (Turn, []RatingWrite) {
	st.FilterKey = sets.Key
	st.TotalCount = len(sets.All)

	if len(sets.All) < 2 {
		// The ordered library view is too thin for ranked selection.
		// A filtered set with two scenes still makes a watchable pair.
		if len(sets.Filtered) >= 2 {
			return sel.unrankedPair(st, sets.Filtered), nil
		}
		st.clearPair()
		return Turn{Status: scene.StatusError, Message: "fewer than 2 scenes in the library"}, nil
	}

	switch st.Mode {
	case scene.ModeGauntlet, scene.ModeChampion:
		return sel.duelTurn(st, sets)
	default:
		return sel.swissTurn(st, sets), nil
	}
}

// Decide folds the user's verdict into the state. The returned turn is
// non-nil only when the decision itself produced a display state (a
// falling scene settling into its placement); otherwise the caller asks
// for the next pair. Writes are the optimistic rating movements.
func (sel *Selector) Decide(st *State, sets Sets, winner scene.Side) (*Turn, []RatingWrite, error) {
	if !winner.Valid() {
		return nil, nil, ErrInvalidSide
	}
	if !st.Showing() {
		return nil, nil, ErrNoPair
	}

	winScene, loseScene := sel.resolvePair(st, sets, winner)

	switch st.Mode {
	case scene.ModeGauntlet, scene.ModeChampion:
		turn, writes := sel.duelDecide(st, sets, winScene, loseScene)
		return turn, writes, nil
	default:
		return nil, sel.swissDecide(st, winScene, loseScene), nil
	}
}

// SwitchMode changes the matchmaking flavor. All run context resets and
// the pool cursor restarts; removals persist within the filter scope.
func (sel *Selector) SwitchMode(st *State, mode scene.Mode) {
	st.Mode = mode
	st.resetRun()
	st.clearPair()
	sel.pool.Reset()
}

// SwitchFilter moves the session to a new filter scope. Run context and
// the displayed pair reset; the pool renews itself on the next draw.
func (sel *Selector) SwitchFilter(st *State, key scene.FilterKey) {
	st.FilterKey = key
	st.resetRun()
	st.clearPair()
}

// ResetSession wipes the session back to a fresh default, pool included.
func (sel *Selector) ResetSession(st *State) {
	mode := st.Mode
	*st = *NewState()
	st.Mode = mode
	sel.pool.Clear()
}

// resolvePair maps the stored pair onto live scene data, preferring the
// current copies in sets so drifted ratings are not re-applied stale.
func (sel *Selector) resolvePair(st *State, sets Sets, winner scene.Side) (scene.Scene, scene.Scene) {
	left := sel.liveScene(sets, *st.Pair.Left)
	right := sel.liveScene(sets, *st.Pair.Right)
	if winner == scene.SideLeft {
		return left, right
	}
	return right, left
}

func (sel *Selector) liveScene(sets Sets, stored scene.Scene) scene.Scene {
	if i := scene.IndexOf(sets.All, stored.ID); i >= 0 {
		return sets.All[i]
	}
	if i := scene.IndexOf(sets.Filtered, stored.ID); i >= 0 {
		return sets.Filtered[i]
	}
	return stored
}

// unrankedPair serves a uniform random pair with unknown ranks. Used when
// the ordered view cannot support ranked selection.
func (sel *Selector) unrankedPair(st *State, from []scene.Scene) Turn {
	i := sel.rng.Intn(len(from))
	j := sel.rng.Intn(len(from) - 1)
	if j >= i {
		j++
	}

	left := sceneCopy(from[i])
	right := sceneCopy(from[j])
	st.Pair = Pair{Left: left, Right: right}
	st.Ranks = Ranks{}

	return Turn{Left: left, Right: right, Status: scene.StatusPair}
}

// showPair records and returns a ranked pair turn.
func (sel *Selector) showPair(st *State, sets Sets, left, right scene.Scene, streak *int) Turn {
	l := sceneCopy(left)
	r := sceneCopy(right)
	leftRank := rankPtr(scene.Rank(sets.All, left.ID))
	rightRank := rankPtr(scene.Rank(sets.All, right.ID))

	st.Pair = Pair{Left: l, Right: r}
	st.Ranks = Ranks{Left: leftRank, Right: rightRank}

	return Turn{
		Left:      l,
		Right:     r,
		LeftRank:  leftRank,
		RightRank: rightRank,
		Streak:    streak,
		Status:    scene.StatusPair,
	}
}

// exhausted reports an empty pool to the caller, who may refetch and retry.
func (sel *Selector) exhausted(st *State) Turn {
	st.clearPair()
	return Turn{Status: scene.StatusExhausted, Message: "no scenes left in the current cycle"}
}

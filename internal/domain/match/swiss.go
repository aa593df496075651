package match

import (
	rating "github.com/dtt-git/stash-battle/internal/domain/rating"
	scene "github.com/dtt-git/stash-battle/internal/domain/scene"
)

// swissTurn draws the judged side from the pool and pairs it with a
// similarly-placed opponent from the ordered view.
func (sel *Selector) swissTurn(st *State, sets Sets) Turn {
	left, ok := sel.pool.Next(sets.Filtered, sets.Key)
	if !ok {
		return sel.exhausted(st)
	}

	right, ok := sel.windowOpponent(sets.All, left.ID)
	if !ok {
		return sel.exhausted(st)
	}

	return sel.showPair(st, sets, left, right, nil)
}

// windowOpponent chooses uniformly among the scenes within reach positions
// of the left scene in the ordered view, never the left scene itself. When
// the window offers nothing, any other scene serves.
func (sel *Selector) windowOpponent(all []scene.Scene, leftID string) (scene.Scene, bool) {
	pos := scene.IndexOf(all, leftID)
	if pos >= 0 {
		lo := pos - sel.reach
		if lo < 0 {
			lo = 0
		}
		hi := pos + sel.reach
		if hi > len(all)-1 {
			hi = len(all) - 1
		}

		candidates := make([]scene.Scene, 0, hi-lo+1)
		for i := lo; i <= hi; i++ {
			if all[i].ID == leftID {
				continue
			}
			candidates = append(candidates, all[i])
		}
		if len(candidates) > 0 {
			return candidates[sel.rng.Intn(len(candidates))], true
		}
	}

	return sel.anyOther(all, leftID)
}

// anyOther picks a uniform random scene that is not excludeID.
func (sel *Selector) anyOther(all []scene.Scene, excludeID string) (scene.Scene, bool) {
	others := make([]scene.Scene, 0, len(all))
	for _, s := range all {
		if s.ID == excludeID {
			continue
		}
		others = append(others, s)
	}
	if len(others) == 0 {
		return scene.Scene{}, false
	}
	return others[sel.rng.Intn(len(others))], true
}

// swissDecide moves both sides and retires them from the pool round, so a
// judged scene cannot come back before the cycle ends.
func (sel *Selector) swissDecide(st *State, winner, loser scene.Scene) []RatingWrite {
	res := rating.Score(winner, loser, scene.ModeSwiss, rating.Context{})
	writes := collectWrites(winner, loser, res)

	sel.pool.Remove(st.Pair.Left.ID)
	sel.pool.Remove(st.Pair.Right.ID)
	st.clearPair()

	return writes
}

// collectWrites folds a rating result into the writes the caller applies.
func collectWrites(winner, loser scene.Scene, res rating.Result) []RatingWrite {
	writes := make([]RatingWrite, 0, 2)
	if res.WriteWinner {
		writes = append(writes, RatingWrite{SceneID: winner.ID, Rating: res.NewWinnerRating})
	}
	if res.WriteLoser {
		writes = append(writes, RatingWrite{SceneID: loser.ID, Rating: res.NewLoserRating})
	}
	return writes
}

// effectiveRating reads a scene's rating with the formula default.
func effectiveRating(s scene.Scene) int {
	if v, ok := s.RatingValue(); ok {
		return v
	}
	return rating.DefaultRating
}

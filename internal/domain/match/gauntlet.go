package match

import (
	rating "github.com/dtt-git/stash-battle/internal/domain/rating"
	scene "github.com/dtt-git/stash-battle/internal/domain/scene"
)

// duelTurn produces the next gauntlet or champion pair. A bottom-out
// settle happens at selection time, so the turn may carry writes.
func (sel *Selector) duelTurn(st *State, sets Sets) (Turn, []RatingWrite) {
	// a falling flag without its scene cannot drive a descent
	if st.Falling && st.FallingScene == nil {
		st.Falling = false
	}

	if st.Mode == scene.ModeGauntlet && st.Falling {
		return sel.fallingTurn(st, sets)
	}
	if st.Champion == nil {
		return sel.noChampionTurn(st, sets), nil
	}
	return sel.climbingTurn(st, sets), nil
}

// noChampionTurn opens a run: a pool challenger against the lowest rated
// scene in the library. Whoever wins takes the title.
func (sel *Selector) noChampionTurn(st *State, sets Sets) Turn {
	challenger, ok := sel.pool.Next(sets.Filtered, sets.Key)
	if !ok {
		return sel.exhausted(st)
	}

	opponent, ok := sel.lowestRated(sets.All, challenger.ID)
	if !ok {
		// Nothing rated yet; any other scene serves as the opener.
		opponent, ok = sel.firstOther(sets.All, challenger.ID)
		if !ok {
			return sel.exhausted(st)
		}
	}

	return sel.showPair(st, sets, challenger, opponent, nil)
}

// climbingTurn refreshes the champion from live data and pits it against
// the best-placed scene it has not beaten. No qualifying opponent left
// means the champion owns the hill.
func (sel *Selector) climbingTurn(st *State, sets Sets) Turn {
	champ := sel.liveScene(sets, *st.Champion)
	st.Champion = sceneCopy(champ)

	opponent, ok := sel.climbOpponent(st, sets.All, champ)
	if !ok {
		return sel.victory(st, sets, champ)
	}

	return sel.showPair(st, sets, champ, opponent, intPtr(st.WinStreak))
}

// fallingTurn tests the dethroned scene one step further down. Running
// out of scenes below settles it at the very bottom.
func (sel *Selector) fallingTurn(st *State, sets Sets) (Turn, []RatingWrite) {
	falling := sel.liveScene(sets, *st.FallingScene)
	st.FallingScene = sceneCopy(falling)

	opponent, ok := sel.fallOpponent(st, sets.All, falling)
	if !ok {
		return sel.settle(st, sets, falling, scene.MinRating, len(sets.All))
	}

	turn := sel.showPair(st, sets, falling, opponent, nil)
	return turn, nil
}

// victory emits the end-of-run display and resets for a fresh start. The
// next requested pair opens a new run.
func (sel *Selector) victory(st *State, sets Sets, champ scene.Scene) Turn {
	turn := Turn{
		Left:     sceneCopy(champ),
		LeftRank: rankPtr(scene.Rank(sets.All, champ.ID)),
		Streak:   intPtr(st.WinStreak),
		Status:   scene.StatusVictory,
		Message:  "the champion has beaten every scene above it",
	}

	st.resetRun()
	st.clearPair()

	return turn
}

// settle ends a falling descent: the scene takes its final rating and
// display rank, the run resets, and the placement shows once.
func (sel *Selector) settle(st *State, sets Sets, falling scene.Scene, finalRating, displayRank int) (Turn, []RatingWrite) {
	var writes []RatingWrite
	if effectiveRating(falling) != finalRating || !falling.Rated() {
		writes = append(writes, RatingWrite{SceneID: falling.ID, Rating: finalRating})
	}

	turn := Turn{
		Left:     sceneCopy(falling.WithRating(finalRating)),
		LeftRank: rankPtr(displayRank),
		Status:   scene.StatusPlacement,
		Message:  "the scene has settled into its place",
	}

	st.resetRun()
	st.clearPair()

	return turn, writes
}

// duelDecide folds a duel verdict per the current sub-state. The turn is
// non-nil only when the verdict settled a falling scene.
func (sel *Selector) duelDecide(st *State, sets Sets, winScene, loseScene scene.Scene) (*Turn, []RatingWrite) {
	if st.Mode == scene.ModeGauntlet && st.Falling && st.FallingScene != nil {
		return sel.fallingDecide(st, sets, winScene, loseScene)
	}
	if st.Champion == nil {
		return nil, sel.openingDecide(st, sets, winScene, loseScene)
	}
	return nil, sel.climbingDecide(st, sets, winScene, loseScene)
}

// openingDecide crowns the opening winner. The pool challenger on the
// left is the active side; the benchmark moves only under the top-rank
// rule.
func (sel *Selector) openingDecide(st *State, sets Sets, winScene, loseScene scene.Scene) []RatingWrite {
	activeWon := st.Pair.Left != nil && winScene.ID == st.Pair.Left.ID
	res := rating.Score(winScene, loseScene, st.Mode, rating.Context{
		ActiveWon:    activeWon,
		PassiveIsTop: activeWon && scene.Rank(sets.All, loseScene.ID) == 1,
	})
	writes := collectWrites(winScene, loseScene, res)

	champ := winScene
	if res.WriteWinner {
		champ = champ.WithRating(res.NewWinnerRating)
	}
	st.Champion = sceneCopy(champ)
	st.WinStreak = 1
	st.DefeatedIDs = []string{loseScene.ID}
	st.Falling = false
	st.FallingScene = nil
	st.clearPair()

	return writes
}

// climbingDecide moves the champion per the verdict: a win extends the
// run upward, a loss hands the title to the winner and, in gauntlet,
// starts the old champion's descent.
func (sel *Selector) climbingDecide(st *State, sets Sets, winScene, loseScene scene.Scene) []RatingWrite {
	championWon := st.Champion != nil && winScene.ID == st.Champion.ID
	res := rating.Score(winScene, loseScene, st.Mode, rating.Context{
		ActiveWon:    championWon,
		PassiveIsTop: championWon && scene.Rank(sets.All, loseScene.ID) == 1,
	})
	writes := collectWrites(winScene, loseScene, res)

	if championWon {
		champ := winScene
		if res.WriteWinner {
			champ = champ.WithRating(res.NewWinnerRating)
		}
		st.Champion = sceneCopy(champ)
		st.WinStreak++
		st.DefeatedIDs = append(st.DefeatedIDs, loseScene.ID)
		st.clearPair()
		return writes
	}

	old := loseScene
	if res.WriteLoser {
		old = old.WithRating(res.NewLoserRating)
	}
	st.Champion = sceneCopy(winScene)
	st.WinStreak = 1
	st.DefeatedIDs = nil
	if st.Mode == scene.ModeGauntlet {
		st.Falling = true
		st.FallingScene = sceneCopy(old)
	}
	st.clearPair()

	return writes
}

// fallingDecide advances the descent: a win settles the scene just above
// the opponent it beat, a loss drops it one step further down.
func (sel *Selector) fallingDecide(st *State, sets Sets, winScene, loseScene scene.Scene) (*Turn, []RatingWrite) {
	if winScene.ID == st.FallingScene.ID {
		finalRating := rating.Clamp(effectiveRating(loseScene) + 1)
		displayRank := scene.IndexOf(sets.All, loseScene.ID)
		turn, writes := sel.settle(st, sets, winScene, finalRating, displayRank)
		return &turn, writes
	}

	res := rating.Score(winScene, loseScene, st.Mode, rating.Context{ActiveWon: false})
	writes := collectWrites(winScene, loseScene, res)

	faller := loseScene
	if res.WriteLoser {
		faller = faller.WithRating(res.NewLoserRating)
	}
	st.FallingScene = sceneCopy(faller)
	st.DefeatedIDs = append(st.DefeatedIDs, winScene.ID)
	st.clearPair()

	return nil, writes
}

// climbOpponent walks the ordered view best-first for a scene the
// champion has not beaten: anything literally above the champion, or
// rated at least the champion's effective rating.
func (sel *Selector) climbOpponent(st *State, all []scene.Scene, champ scene.Scene) (scene.Scene, bool) {
	champPos := scene.IndexOf(all, champ.ID)
	if champPos < 0 {
		champPos = len(all)
	}
	champRating := effectiveRating(champ)

	for i := range all {
		if all[i].ID == champ.ID || st.defeated(all[i].ID) {
			continue
		}
		if i < champPos || (all[i].Rated() && effectiveRating(all[i]) >= champRating) {
			return all[i], true
		}
	}

	return scene.Scene{}, false
}

// fallOpponent finds the first untested scene below the falling scene's
// current position.
func (sel *Selector) fallOpponent(st *State, all []scene.Scene, falling scene.Scene) (scene.Scene, bool) {
	pos := scene.IndexOf(all, falling.ID)
	if pos < 0 {
		return scene.Scene{}, false
	}

	for i := pos + 1; i < len(all); i++ {
		if st.defeated(all[i].ID) {
			continue
		}
		return all[i], true
	}

	return scene.Scene{}, false
}

// lowestRated scans the ordered view bottom-up for the weakest rated
// scene that is not excludeID.
func (sel *Selector) lowestRated(all []scene.Scene, excludeID string) (scene.Scene, bool) {
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].ID == excludeID || !all[i].Rated() {
			continue
		}
		return all[i], true
	}
	return scene.Scene{}, false
}

// firstOther returns the first scene that is not excludeID.
func (sel *Selector) firstOther(all []scene.Scene, excludeID string) (scene.Scene, bool) {
	for i := range all {
		if all[i].ID != excludeID {
			return all[i], true
		}
	}
	return scene.Scene{}, false
}

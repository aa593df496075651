// Package match implements the turn-based matchmaking state machine for
// the three battle modes. It owns the session state shape and decides,
// per mode, which pair to show next and how a verdict moves ratings.
package match

import (
	scene "github.com/dtt-git/stash-battle/internal/domain/scene"
)

// Pair is the two scenes currently on display.
type Pair struct {
	Left  *scene.Scene `json:"left,omitempty"`
	Right *scene.Scene `json:"right,omitempty"`
}

// Ranks carries the 1-based positions of the displayed pair within the
// rating-descending library view. Nil means unranked.
type Ranks struct {
	Left  *int `json:"left,omitempty"`
	Right *int `json:"right,omitempty"`
}

// State is the durable session snapshot. It is overwritten wholesale on
// every transition and is the only engine state that survives a restart.
type State struct {
	Pair         Pair            `json:"pair"`
	Ranks        Ranks           `json:"ranks"`
	Mode         scene.Mode      `json:"mode"`
	Champion     *scene.Scene    `json:"champion,omitempty"`
	WinStreak    int             `json:"win_streak"`
	DefeatedIDs  []string        `json:"defeated_ids,omitempty"`
	Falling      bool            `json:"falling"`
	FallingScene *scene.Scene    `json:"falling_scene,omitempty"`
	TotalCount   int             `json:"total_count"`
	FilterKey    scene.FilterKey `json:"filter_key"`
}

// NewState returns a fresh session in the default mode.
func NewState() *State {
	return &State{Mode: scene.ModeSwiss}
}

// Showing reports whether a pair is currently on display.
func (st *State) Showing() bool {
	return st.Pair.Left != nil && st.Pair.Right != nil
}

// clearPair drops the displayed pair, returning the loop to AwaitingPair.
func (st *State) clearPair() {
	st.Pair = Pair{}
	st.Ranks = Ranks{}
}

// resetRun drops all mode-specific context: champion, streak, defeated
// set, and the falling descent.
func (st *State) resetRun() {
	st.Champion = nil
	st.WinStreak = 0
	st.DefeatedIDs = nil
	st.Falling = false
	st.FallingScene = nil
}

// defeated reports whether id has been beaten this run.
func (st *State) defeated(id string) bool {
	for _, d := range st.DefeatedIDs {
		if d == id {
			return true
		}
	}
	return false
}

// Turn is what one engine step produces for display. The active side of
// a duel always sits left, so the streak rides with the left slot.
type Turn struct {
	Left      *scene.Scene `json:"left,omitempty"`
	Right     *scene.Scene `json:"right,omitempty"`
	LeftRank  *int         `json:"left_rank,omitempty"`
	RightRank *int         `json:"right_rank,omitempty"`
	Streak    *int         `json:"streak,omitempty"`
	Status    scene.Status `json:"status"`
	Message   string       `json:"message,omitempty"`
}

// RatingWrite is an optimistic rating movement the caller must patch into
// the cache and push to the media server.
type RatingWrite struct {
	SceneID string `json:"scene_id"`
	Rating  int    `json:"rating"`
}

// Sets bundles the scene views one turn consumes. All is the full library
// in rating-descending order; Filtered is the active filter's set.
type Sets struct {
	All      []scene.Scene
	Filtered []scene.Scene
	Key      scene.FilterKey
}

func intPtr(v int) *int { return &v }

// rankPtr converts a 1-based rank to its display form, nil when unranked.
func rankPtr(rank int) *int {
	if rank <= 0 {
		return nil
	}
	return intPtr(rank)
}

func sceneCopy(s scene.Scene) *scene.Scene {
	c := s
	return &c
}

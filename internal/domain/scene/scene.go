// Package scene contains the domain types shared across the engine.
package scene

import "sort"

// Rating bounds enforced across the system.
const (
	MinRating = 1
	MaxRating = 100
)

// Scene is a single library entry as served by the media server.
// Display fields are carried verbatim for the UI; the engine only ever
// branches on ID, Rating, and PlayCount.
type Scene struct {
	ID            string   `json:"id"`
	Rating        *int     `json:"rating100,omitempty"`
	PlayCount     int      `json:"play_count"`
	Title         string   `json:"title,omitempty"`
	Studio        string   `json:"studio,omitempty"`
	Performers    []string `json:"performers,omitempty"`
	DurationSec   float64  `json:"duration,omitempty"`
	ScreenshotURL string   `json:"screenshot,omitempty"`
}

// Rated reports whether the scene carries a rating. Unrated is not the
// same as rated 50: searches over rated scenes must skip unrated ones.
func (s Scene) Rated() bool { return s.Rating != nil }

// RatingValue returns the rating and whether one is present.
func (s Scene) RatingValue() (int, bool) {
	if s.Rating == nil {
		return 0, false
	}
	return *s.Rating, true
}

// WithRating returns a copy of the scene carrying the given rating.
func (s Scene) WithRating(value int) Scene {
	v := value
	s.Rating = &v
	return s
}

// FilterKey identifies a filter configuration. Two keys are equal iff the
// configurations are interchangeable; nothing inspects a key's contents.
type FilterKey string

// IsZero reports whether the key names no filter at all.
func (k FilterKey) IsZero() bool { return k == "" }

// Mode selects the matchmaking flavor.
type Mode string

// Matchmaking modes.
const (
	ModeSwiss    Mode = "swiss"
	ModeGauntlet Mode = "gauntlet"
	ModeChampion Mode = "champion"
)

// Valid reports whether the mode is one of the known flavors.
func (m Mode) Valid() bool {
	switch m {
	case ModeSwiss, ModeGauntlet, ModeChampion:
		return true
	default:
		return false
	}
}

// ParseMode maps a wire string onto a Mode.
func ParseMode(s string) (Mode, bool) {
	m := Mode(s)
	return m, m.Valid()
}

// Status describes what a turn produced.
type Status string

// Turn statuses.
const (
	StatusPair      Status = "pair"
	StatusVictory   Status = "victory"
	StatusPlacement Status = "placement"
	StatusExhausted Status = "exhausted"
	StatusError     Status = "error"
)

// Side names a pair slot in a decision.
type Side string

// Pair sides.
const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Valid reports whether the side names a pair slot.
func (s Side) Valid() bool { return s == SideLeft || s == SideRight }

// Less orders scenes rating-descending with unrated scenes last.
// Ties break by ID so the order is stable across refetches.
func Less(a, b Scene) bool {
	ar, aok := a.RatingValue()
	br, bok := b.RatingValue()
	switch {
	case aok && !bok:
		return true
	case !aok && bok:
		return false
	case aok && bok && ar != br:
		return ar > br
	default:
		return a.ID < b.ID
	}
}

// SortByRating sorts scenes in place into the canonical rating-descending order.
func SortByRating(scenes []Scene) {
	sort.SliceStable(scenes, func(i, j int) bool { return Less(scenes[i], scenes[j]) })
}

// IndexOf returns the position of id in scenes, or -1 when absent.
func IndexOf(scenes []Scene, id string) int {
	for i := range scenes {
		if scenes[i].ID == id {
			return i
		}
	}
	return -1
}

// Rank returns the 1-based position of id within the rating-descending set.
// Unrated or absent scenes have no rank and report 0.
func Rank(ordered []Scene, id string) int {
	i := IndexOf(ordered, id)
	if i < 0 || !ordered[i].Rated() {
		return 0
	}
	return i + 1
}

// CountRated returns how many scenes carry a rating.
func CountRated(scenes []Scene) int {
	n := 0
	for i := range scenes {
		if scenes[i].Rated() {
			n++
		}
	}
	return n
}

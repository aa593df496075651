// Package rating implements the pairwise rating update rules for decided
// matches. Everything here is pure computation; writes happen elsewhere.
package rating

import (
	"math"

	scene "github.com/dtt-git/stash-battle/internal/domain/scene"
)

// DefaultRating substitutes for an absent rating inside the formulas.
// It never promotes an unrated scene to rated anywhere else.
const DefaultRating = 50

// Expected-score curve constants: with base 10 and scale 40, a 40-point
// rating gap makes the stronger side a 10:1 favorite.
const (
	logisticBase = 10
	ratingScale  = 40
)

// K-factor tiers. New scenes move fast and find their level; established
// scenes stay put.
const (
	noviceGames      = 3
	developingGames  = 8
	establishedGames = 15

	kNovice      = 12
	kDeveloping  = 8
	kEstablished = 6
	kVeteran     = 4
)

// Context carries the mode-specific facts Score needs beyond the pair.
type Context struct {
	// ActiveWon reports whether the active side (the champion, or the
	// falling scene during a descent) won the match. Ignored in Swiss.
	ActiveWon bool
	// PassiveIsTop reports whether the passive side holds rank 1.
	PassiveIsTop bool
}

// Result is the movement produced by one decided match. Deltas are the
// magnitudes the formulas produced before clamping; Write flags are false
// when clamping collapsed the movement to nothing, so no redundant write
// reaches the media server.
type Result struct {
	NewWinnerRating int
	NewLoserRating  int
	WinnerDelta     int
	LoserDelta      int
	WriteWinner     bool
	WriteLoser      bool
}

// Expected returns the probability that the winner side beats the loser
// side under the logistic model:
//
//	E = 1 / (1 + 10^((loserRating-winnerRating)/40))
func Expected(winnerRating, loserRating int) float64 {
	exponent := float64(loserRating-winnerRating) / ratingScale
	return 1 / (1 + math.Pow(logisticBase, exponent))
}

// KFactor returns the update weight for a scene with the given play count.
func KFactor(playCount int) int {
	switch {
	case playCount < noviceGames:
		return kNovice
	case playCount < developingGames:
		return kDeveloping
	case playCount < establishedGames:
		return kEstablished
	default:
		return kVeteran
	}
}

// Clamp bounds a rating to the valid range.
func Clamp(r int) int {
	if r < scene.MinRating {
		return scene.MinRating
	}
	if r > scene.MaxRating {
		return scene.MaxRating
	}
	return r
}

// Score computes the rating movement for a decided match.
//
// Swiss moves both sides: the winner gains max(1, round(K*(1-E))) and the
// loser drops max(1, round(K*E)), each with its own play-count K.
//
// Gauntlet and Champion move only the active side by the same formulas.
// The passive side is a fixed benchmark, with one exception: a passive
// scene holding rank 1 that loses drops exactly 1 point, so the top spot
// cannot become unbeatable by attrition.
func Score(winner, loser scene.Scene, mode scene.Mode, ctx Context) Result {
	wr := effective(winner)
	lr := effective(loser)
	exp := Expected(wr, lr)

	if mode == scene.ModeSwiss {
		wd := winnerDelta(winner.PlayCount, exp)
		ld := loserDelta(loser.PlayCount, exp)
		newW := Clamp(wr + wd)
		newL := Clamp(lr - ld)
		return Result{
			NewWinnerRating: newW,
			NewLoserRating:  newL,
			WinnerDelta:     wd,
			LoserDelta:      ld,
			WriteWinner:     newW != wr || !winner.Rated(),
			WriteLoser:      newL != lr || !loser.Rated(),
		}
	}

	if ctx.ActiveWon {
		wd := winnerDelta(winner.PlayCount, exp)
		newW := Clamp(wr + wd)
		res := Result{
			NewWinnerRating: newW,
			NewLoserRating:  lr,
			WinnerDelta:     wd,
			WriteWinner:     newW != wr || !winner.Rated(),
		}
		if ctx.PassiveIsTop {
			res.LoserDelta = 1
			res.NewLoserRating = Clamp(lr - 1)
			res.WriteLoser = res.NewLoserRating != lr
		}
		return res
	}

	// Active side lost; the passive winner never moves.
	ld := loserDelta(loser.PlayCount, exp)
	newL := Clamp(lr - ld)
	return Result{
		NewWinnerRating: wr,
		NewLoserRating:  newL,
		LoserDelta:      ld,
		WriteLoser:      newL != lr || !loser.Rated(),
	}
}

// winnerDelta is max(1, round(K * (1-E))): winning always earns a point.
func winnerDelta(playCount int, expected float64) int {
	d := int(math.Round(float64(KFactor(playCount)) * (1 - expected)))
	if d < 1 {
		return 1
	}
	return d
}

// loserDelta is max(1, round(K * E)): losing always costs a point.
func loserDelta(playCount int, expected float64) int {
	d := int(math.Round(float64(KFactor(playCount)) * expected))
	if d < 1 {
		return 1
	}
	return d
}

func effective(s scene.Scene) int {
	if v, ok := s.RatingValue(); ok {
		return v
	}
	return DefaultRating
}

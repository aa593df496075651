// Package seed generates a synthetic scene library and serves it over
// the media server wire protocol, so the engine can be demoed and load
// tested without a real install behind it.
package seed

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/dtt-git/stash-battle/internal/domain/scene"
)

// Rating band boundaries for rated scenes.
const (
	lowRatingMin   = scene.MinRating
	lowRatingMax   = 35
	midRatingMin   = 36
	midRatingMax   = 65
	highRatingMin  = 66
	highRatingMax  = 90
	eliteRatingMin = 91
	eliteRatingMax = scene.MaxRating
)

// Band weights for rated scenes, cumulative over a unit draw. Most
// libraries cluster around the middle with a thin elite tail.
const (
	bandLowCutoff  = 0.25
	bandMidCutoff  = 0.65
	bandHighCutoff = 0.90
)

// Library shape constants.
const (
	maxPlayCount        = 40
	maxUnratedPlayCount = 4
	minDurationSec      = 180
	maxDurationSec      = 3600
	maxPerformers       = 3
)

var titleAdjectives = []string{
	"Sunset", "Midnight", "Golden", "Silent", "Hidden", "Electric",
	"Crimson", "Velvet", "Distant", "Broken", "Neon", "Quiet",
	"Winter", "Summer", "Wild", "Lost",
}

var titleNouns = []string{
	"Beach", "Harbor", "Avenue", "Garden", "Mirror", "Horizon",
	"Carnival", "Station", "Rooftop", "Lagoon", "Boulevard", "Canyon",
	"Orchard", "Skyline", "Meadow", "Arcade",
}

var studioNames = []string{
	"Blue Wave", "Neon District", "Northlight", "Paper Lantern",
	"Redbrick", "Silver Pine", "Tidewater", "Vantage",
}

var performerNames = []string{
	"Alex Rivers", "Morgan Hale", "Casey Monroe", "Jordan Vale",
	"Riley Sloan", "Quinn Harper", "Dana Frost", "Jamie Larkin",
	"Robin Ashford", "Sage Delacroix", "Avery Knox", "Rowan Petty",
}

// Generator draws scenes from a seeded source. The same seed yields
// the same library shape; only the UUIDs differ between runs.
type Generator struct {
	rng   *rand.Rand
	rated float64
}

// NewGenerator returns a generator whose content is fixed by seed.
// ratedFraction is the share of scenes that start with a rating,
// clamped to [0, 1].
func NewGenerator(seed int64, ratedFraction float64) *Generator {
	if ratedFraction < 0 {
		ratedFraction = 0
	}
	if ratedFraction > 1 {
		ratedFraction = 1
	}
	return &Generator{
		rng:   rand.New(rand.NewSource(seed)),
		rated: ratedFraction,
	}
}

// Library produces n scenes.
func (g *Generator) Library(n int) []scene.Scene {
	scenes := make([]scene.Scene, 0, n)
	for i := 0; i < n; i++ {
		scenes = append(scenes, g.scene())
	}
	return scenes
}

func (g *Generator) scene() scene.Scene {
	id := uuid.New().String()
	s := scene.Scene{
		ID:            id,
		Title:         g.title(),
		Studio:        studioNames[g.rng.Intn(len(studioNames))],
		Performers:    g.performers(),
		DurationSec:   float64(g.rng.Intn(maxDurationSec-minDurationSec+1) + minDurationSec),
		ScreenshotURL: "/scene/" + id + "/screenshot",
	}

	if rating, ok := g.rating(); ok {
		s = s.WithRating(rating)
		s.PlayCount = g.rng.Intn(maxPlayCount + 1)
	} else {
		// You rate what you watch: unrated scenes stay near zero plays.
		s.PlayCount = g.rng.Intn(maxUnratedPlayCount + 1)
	}

	return s
}

// rating draws a rating for the scene, or reports that it stays
// unrated.
func (g *Generator) rating() (int, bool) {
	if g.rng.Float64() >= g.rated {
		return 0, false
	}

	band := g.rng.Float64()
	switch {
	case band < bandLowCutoff:
		return g.between(lowRatingMin, lowRatingMax), true
	case band < bandMidCutoff:
		return g.between(midRatingMin, midRatingMax), true
	case band < bandHighCutoff:
		return g.between(highRatingMin, highRatingMax), true
	default:
		return g.between(eliteRatingMin, eliteRatingMax), true
	}
}

func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *Generator) title() string {
	adj := titleAdjectives[g.rng.Intn(len(titleAdjectives))]
	noun := titleNouns[g.rng.Intn(len(titleNouns))]
	return adj + " " + noun
}

func (g *Generator) performers() []string {
	count := 1 + g.rng.Intn(maxPerformers)
	picks := g.rng.Perm(len(performerNames))[:count]
	names := make([]string, 0, count)
	for _, p := range picks {
		names = append(names, performerNames[p])
	}
	return names
}

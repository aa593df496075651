package stash

import (
	"context"

	"github.com/dtt-git/stash-battle/internal/domain/scene"
)

// Source adapts the gateway to the cache's fetch contract. Each bucket
// loads with a single findScenes call carrying scenes and total count.
type Source struct {
	gw Gateway
}

// NewSource wraps a gateway for the cache.
func NewSource(gw Gateway) *Source {
	return &Source{gw: gw}
}

// FetchAll loads the unfiltered library.
func (s *Source) FetchAll(ctx context.Context) ([]scene.Scene, int, error) {
	return s.gw.Find(ctx, scene.Filter{}, SortRating, AllScenes)
}

// FetchFiltered loads the scene set for one filter.
func (s *Source) FetchFiltered(ctx context.Context, f scene.Filter) ([]scene.Scene, int, error) {
	return s.gw.Find(ctx, f, SortRating, AllScenes)
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/dtt-git/stash-battle/internal/adapters/stash"
	"github.com/dtt-git/stash-battle/internal/domain/scene"
	"github.com/dtt-git/stash-battle/pkg/logger"
)

// FilterDependencies defines the interface for switching the filter scope.
type FilterDependencies interface {
	SwitchFilter(ctx context.Context, f scene.Filter) (Turn, error)
}

// FilterHandler handles filter switch requests.
type FilterHandler struct {
	deps FilterDependencies
	log  logger.Logger
}

// NewFilterHandler creates a new filter handler.
func NewFilterHandler(deps FilterDependencies) *FilterHandler {
	return &FilterHandler{
		deps: deps,
		log:  logger.Get().Named("api"),
	}
}

// HandleFilter handles POST /api/v1/filter requests. The filter arrives
// URL-encoded: q carries the free-text term and each criterion parameter
// one JSON criterion object. Malformed criteria are skipped with a warn
// log; the rest of the filter still applies. An empty form clears the
// filter.
func (h *FilterHandler) HandleFilter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	f, skipped := stash.ParseFilter(r.Form)
	for _, err := range skipped {
		h.log.Warn(r.Context(), "criterion skipped", logger.Error(err))
	}

	turn, err := h.deps.SwitchFilter(r.Context(), f)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

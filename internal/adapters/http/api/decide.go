// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/dtt-git/stash-battle/internal/domain/scene"
)

// DecideDependencies defines the interface for recording verdicts.
type DecideDependencies interface {
	Decide(ctx context.Context, winner scene.Side) (Turn, error)
}

// DecideHandler handles verdict requests.
type DecideHandler struct {
	deps DecideDependencies
}

// NewDecideHandler creates a new decide handler.
func NewDecideHandler(deps DecideDependencies) *DecideHandler {
	return &DecideHandler{deps: deps}
}

// HandleDecide handles POST /api/v1/decide requests. The body names the
// winning side of the displayed pair; the response is the next turn.
func (h *DecideHandler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	winner, err := req.side()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_side", err)
		return
	}

	turn, err := h.deps.Decide(r.Context(), winner)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

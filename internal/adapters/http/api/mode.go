// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/dtt-git/stash-battle/internal/domain/scene"
)

// ModeDependencies defines the interface for switching match modes.
type ModeDependencies interface {
	SwitchMode(ctx context.Context, mode scene.Mode) (Turn, error)
}

// ModeHandler handles mode switch requests.
type ModeHandler struct {
	deps ModeDependencies
}

// NewModeHandler creates a new mode handler.
func NewModeHandler(deps ModeDependencies) *ModeHandler {
	return &ModeHandler{deps: deps}
}

// HandleMode handles POST /api/v1/mode requests. Switching resets the
// run context and serves an opening pair for the new mode.
func (h *ModeHandler) HandleMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	mode, err := req.mode()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_mode", err)
		return
	}

	turn, err := h.deps.SwitchMode(r.Context(), mode)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

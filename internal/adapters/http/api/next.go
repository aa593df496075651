// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// NextDependencies defines the interface for serving the current pair.
type NextDependencies interface {
	Next(ctx context.Context) (Turn, error)
}

// NextHandler handles next-pair requests.
type NextHandler struct {
	deps NextDependencies
}

// NewNextHandler creates a new next handler.
func NewNextHandler(deps NextDependencies) *NextHandler {
	return &NextHandler{deps: deps}
}

// HandleNext handles GET /api/v1/next requests. Asking again for a pair
// already on display returns the same pair; the session only advances
// through a decision.
func (h *NextHandler) HandleNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	turn, err := h.deps.Next(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

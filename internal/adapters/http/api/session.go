// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/dtt-git/stash-battle/internal/domain/match"
	"github.com/dtt-git/stash-battle/internal/domain/scene"
)

// SessionDependencies defines the interface for reading the session.
type SessionDependencies interface {
	Session() match.State
	Filter() scene.Filter
}

// SessionHandler handles session snapshot requests.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// HandleSession handles GET /api/v1/session requests.
func (h *SessionHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Session: h.deps.Session(),
		Filter:  h.deps.Filter(),
	})
}

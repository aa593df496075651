// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dtt-git/stash-battle/internal/domain/match"
	"github.com/dtt-git/stash-battle/internal/domain/scene"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Turn-producing operations. Every one returns the next display state.
	Next(ctx context.Context) (Turn, error)
	Decide(ctx context.Context, winner scene.Side) (Turn, error)
	SwitchMode(ctx context.Context, mode scene.Mode) (Turn, error)
	SwitchFilter(ctx context.Context, f scene.Filter) (Turn, error)
	Reset(ctx context.Context) (Turn, error)
	Refresh(ctx context.Context) (Turn, error)

	// Read operations expose the session snapshot.
	Session() match.State
	Filter() scene.Filter
}

// Turn mirrors the display payload returned by battle operations.
type Turn = match.Turn

// Server wires HTTP routes for the business API.
type Server struct {
	nextHandler    *NextHandler
	decideHandler  *DecideHandler
	modeHandler    *ModeHandler
	filterHandler  *FilterHandler
	resetHandler   *ResetHandler
	refreshHandler *RefreshHandler
	sessionHandler *SessionHandler
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	metricsHandler *MetricsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		nextHandler:    NewNextHandler(deps),
		decideHandler:  NewDecideHandler(deps),
		modeHandler:    NewModeHandler(deps),
		filterHandler:  NewFilterHandler(deps),
		resetHandler:   NewResetHandler(deps),
		refreshHandler: NewRefreshHandler(deps),
		sessionHandler: NewSessionHandler(deps),
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		metricsHandler: NewMetricsHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/next", MetricsMiddleware(s.nextHandler.HandleNext, "next"))
	mux.HandleFunc("/api/v1/decide", MetricsMiddleware(s.decideHandler.HandleDecide, "decide"))
	mux.HandleFunc("/api/v1/mode", MetricsMiddleware(s.modeHandler.HandleMode, "mode"))
	mux.HandleFunc("/api/v1/filter", MetricsMiddleware(s.filterHandler.HandleFilter, "filter"))
	mux.HandleFunc("/api/v1/reset", MetricsMiddleware(s.resetHandler.HandleReset, "reset"))
	mux.HandleFunc("/api/v1/refresh", MetricsMiddleware(s.refreshHandler.HandleRefresh, "refresh"))
	mux.HandleFunc("/api/v1/session", MetricsMiddleware(s.sessionHandler.HandleSession, "session"))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/metrics", s.metricsHandler.HandleMetrics)
}

// decideRequest mirrors the JSON body for POST /api/v1/decide.
type decideRequest struct {
	Winner string `json:"winner"`
}

func (d decideRequest) side() (scene.Side, error) {
	s := scene.Side(strings.ToLower(strings.TrimSpace(d.Winner)))
	if !s.Valid() {
		return "", errors.New("winner must be left or right")
	}
	return s, nil
}

// modeRequest mirrors the JSON body for POST /api/v1/mode.
type modeRequest struct {
	Mode string `json:"mode"`
}

func (m modeRequest) mode() (scene.Mode, error) {
	mode, ok := scene.ParseMode(strings.ToLower(strings.TrimSpace(m.Mode)))
	if !ok {
		return "", errors.New("mode must be swiss, gauntlet, or champion")
	}
	return mode, nil
}

// sessionResponse bundles the session snapshot with the active filter.
// The snapshot itself carries only the filter's key.
type sessionResponse struct {
	Session match.State  `json:"session"`
	Filter  scene.Filter `json:"filter"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

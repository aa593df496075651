package api

import (
	"errors"
	"net/http"

	"github.com/dtt-git/stash-battle/internal/domain/match"
)

// engineStatus translates an engine error into an HTTP status and a
// stable machine-readable code.
func engineStatus(err error) (int, string) {
	switch {
	case errors.Is(err, match.ErrInvalidSide):
		return http.StatusBadRequest, "invalid_side"
	case errors.Is(err, match.ErrNoPair):
		return http.StatusConflict, "no_pair"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeEngineError maps and writes an error returned by an engine call.
func writeEngineError(w http.ResponseWriter, err error) {
	status, code := engineStatus(err)
	writeError(w, status, code, err)
}

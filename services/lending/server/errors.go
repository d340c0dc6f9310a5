package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"openchain/native/lending"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusForError maps engine failures onto HTTP semantics. Unknown failures
// stay opaque 500s so storage details never leak to clients.
func statusForError(err error) int {
	switch {
	case errors.Is(err, lending.ErrInvalidAmount),
		errors.Is(err, lending.ErrInvalidPriceData),
		errors.Is(err, lending.ErrCrossChainFailed),
		errors.Is(err, lending.ErrChainNotSupported):
		return http.StatusBadRequest
	case errors.Is(err, lending.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, lending.ErrPositionNotFound),
		errors.Is(err, lending.ErrAssetNotSupported):
		return http.StatusNotFound
	case errors.Is(err, lending.ErrInsufficientCollateral),
		errors.Is(err, lending.ErrHealthFactorTooLow),
		errors.Is(err, lending.ErrLiquidationNotAllowed):
		return http.StatusConflict
	case errors.Is(err, lending.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

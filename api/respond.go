package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"exercises-server/apperrors"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encoding response", "tag", "api", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, r, status, ErrorResponse{Error: message})
}

// respondServiceError maps exchange errors to a status code. Details of upstream
// failures are logged, not returned.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperrors.ErrUnknownCurrency):
		respondError(w, r, http.StatusNotFound, "unknown currency")
	case errors.Is(err, apperrors.ErrRateUnavailable):
		respondError(w, r, http.StatusNotFound, "exchange rate unavailable")
	default:
		slog.Error("exchange request failed", "tag", "api", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
		respondError(w, r, http.StatusBadGateway, "exchange service unavailable")
	}
}

// internal/handlers/response.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ammerola/stockmirror/internal/core/domain"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// MutationResponse wraps the outcome of a write. Warning is set when the
// change was kept locally but the remote store rejected it.
type MutationResponse struct {
	Data    any    `json:"data,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, ErrorResponse{Error: message})
}

// respondMutation writes data with status on success, 202 with a warning on
// partial success, and the mapped error status otherwise.
func respondMutation(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, data any, err error) {
	if err == nil {
		respondJSON(w, logger, status, MutationResponse{Data: data})
		return
	}

	if domain.IsPartialSuccess(err) {
		logger.WarnContext(r.Context(), "mutation kept locally",
			slog.String("error", err.Error()))
		respondJSON(w, logger, http.StatusAccepted, MutationResponse{Data: data, Warning: err.Error()})
		return
	}

	status = errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "mutation failed",
			slog.String("error", err.Error()))
	}
	respondError(w, logger, status, err.Error())
}

// errorStatus maps domain errors onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidItem), errors.Is(err, domain.ErrInvalidTransfer):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a single JSON document from the request body
func decodeJSON(r *http.Request, dest any) error {
	return json.NewDecoder(r.Body).Decode(dest)
}

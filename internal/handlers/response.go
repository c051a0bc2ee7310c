package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"meeting-search/internal/contextutil"
	"meeting-search/internal/meeting"
)

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// statusFor maps a service error to an HTTP status code. Collaborator
// failures are checked first since they may wrap validation errors.
func statusFor(err error) int {
	switch {
	case errors.Is(err, meeting.ErrExternalService):
		return http.StatusBadGateway
	case errors.Is(err, meeting.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, meeting.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError logs err and writes the matching error response.
// Internal errors are reported with defaultMsg rather than their text.
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	status := statusFor(err)
	switch {
	case status >= http.StatusInternalServerError:
		logger.ErrorContext(ctx, defaultMsg, "status", status, "error", err)
	default:
		logger.WarnContext(ctx, defaultMsg, "status", status, "error", err)
	}

	if status == http.StatusInternalServerError {
		writeError(w, status, defaultMsg)
		return
	}
	writeError(w, status, err.Error())
}

// sessionID returns the caller's session id as resolved by the session middleware.
func sessionID(r *http.Request) string {
	return contextutil.SessionIDFromContext(r.Context())
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/desk-o-meter/internal/attendance"
	"github.com/username/desk-o-meter/internal/calendar"
	"github.com/username/desk-o-meter/internal/store"
)

type errorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// ErrorDetail is the body of a failed request
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	writeJSON(w, statusCode, errorResponse{
		Error: &ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func badRequest(w http.ResponseWriter, message string, details map[string]string) {
	writeError(w, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

// handleError maps domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, attendance.ErrInvalidSettings):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_SETTINGS", err.Error(), nil)
	case errors.Is(err, attendance.ErrInvalidRecord):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_RECORD", err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "UNKNOWN_USER", "no settings stored for this user", nil)
	case errors.Is(err, calendar.ErrUnsupportedRegion):
		writeError(w, http.StatusNotFound, "UNSUPPORTED_REGION", err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred", nil)
	}
}

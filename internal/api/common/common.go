// Package common provides shared HTTP utility functions for API handlers.
package common

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/service"
)

// WriteJSONResponse writes a JSON response with the given data
func WriteJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// WriteErrorResponse writes a standardized error response
func WriteErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	WriteJSONResponse(w, map[string]string{"error": message}, statusCode)
}

// WriteServiceError writes err with the status code that matches its kind.
// Server-side failures are logged.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
	}
	WriteErrorResponse(w, err.Error(), status)
}

// ErrorStatus maps service errors to HTTP status codes
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrMissingURL),
		errors.Is(err, service.ErrNameUnresolvable),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrNotAClone):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sanketpal/filevault"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the appropriate error response based on error type.
// Ownership failures map to 401, not 403: the API does not confirm to an
// authenticated caller that someone else's file exists.
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	switch {
	case errors.Is(err, filevault.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid input")
	case errors.Is(err, filevault.ErrUnauthorized),
		errors.Is(err, filevault.ErrForbidden),
		errors.Is(err, filevault.ErrTokenExpired),
		errors.Is(err, filevault.ErrTokenInvalid):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
	case errors.Is(err, filevault.ErrConflict):
		WriteError(w, http.StatusConflict, "conflict", "Resource already exists")
	case errors.Is(err, filevault.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "File not found")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

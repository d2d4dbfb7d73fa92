// Package handlers holds the HTTP layer: request decoding, validation, and
// the JSON response envelope over the engine's actions.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/noted-app/noted-api/internal/storage"
)

// respondJSON sends a success envelope.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondJSONError sends an error envelope with a bounded message.
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if len(message) > 200 {
		message = message[:200] + "..."
	}
	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondStorageError maps storage sentinels onto HTTP statuses.
func respondStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Resource not found")
	case errors.Is(err, storage.ErrDuplicateFolder):
		respondJSONError(w, http.StatusConflict, "Conflict", "A folder with that name already exists")
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Operation failed")
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

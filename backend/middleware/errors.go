// ABOUTME: JSON error envelope shared by middleware and API handlers
// ABOUTME: Every error answer carries error, optional details and the status code

package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    int    `json:"code"`
}

// WriteError writes an ErrorResponse with status code.
func WriteError(w http.ResponseWriter, message, details string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message, Details: details, Code: code}); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

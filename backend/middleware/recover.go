// ABOUTME: Panic recovery middleware
// ABOUTME: Converts handler panics into logged JSON 500 responses

package middleware

import (
	"log/slog"
	"net/http"
)

// Recover turns a panic in next into a 500 JSON error.
func Recover(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				id := w.Header().Get(RequestIDHeader)
				slog.Error("Handler panic",
					"request_id", id,
					"path", sanitizePath(r.URL.Path),
					"panic", rec,
				)
				details := ""
				if id != "" {
					details = "request " + id
				}
				WriteError(w, "internal server error", details, http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}

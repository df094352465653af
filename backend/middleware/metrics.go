// ABOUTME: Request instrumentation middleware
// ABOUTME: Reports method, route, status and latency to a metrics observer

package middleware

import (
	"net/http"
	"time"
)

// RequestObserver records one finished request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Instrument reports every request to obs under the route pattern rather
// than the raw path, keeping label cardinality bounded.
func Instrument(obs RequestObserver, route string) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next(wrapped, r)
			obs.ObserveRequest(r.Method, route, wrapped.statusCode, time.Since(start))
		}
	}
}

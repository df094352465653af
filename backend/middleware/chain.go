// ABOUTME: Middleware type and chaining for the dashboard API routes
// ABOUTME: Wraps a handler so the first middleware listed runs outermost

package middleware

import "net/http"

// Middleware wraps a handler with cross-cutting behavior.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// Chain wraps h with mws. Chain(h, LogRequest, Recover) serves as
// LogRequest(Recover(h)).
func Chain(h http.HandlerFunc, mws ...Middleware) http.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

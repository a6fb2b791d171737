// Package middleware provides the HTTP middleware for the school directory API.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// corsMaxAge is how long, in seconds, browsers may cache a preflight result.
const corsMaxAge = 600

// NewCORSHandler returns a middleware that applies CORS headers for
// allowedOrigins. Each entry must be a full origin (scheme + host, no
// trailing slash). With no origins configured it passes requests through
// untouched, which keeps the API same-origin only.
//
// The directory is read-mostly: GET for queries, POST for tag toggles and
// DELETE for school removal.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Total-Count", "X-Request-Id"},
		MaxAge:         corsMaxAge,
	})
	return c.Handler
}

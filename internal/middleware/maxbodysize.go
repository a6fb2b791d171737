package middleware

import (
	"net/http"
)

// tooLargeBody matches the API's error envelope.
const tooLargeBody = `{"error":{"code":"too_large","message":"request body too large"}}` + "\n"

// NewMaxBodySizeHandler returns a middleware that caps request bodies at
// limit bytes. A declared Content-Length above the limit is answered with
// 413 before the next handler runs. Other bodies are wrapped in
// http.MaxBytesReader, so a decoder reading past the limit gets an
// *http.MaxBytesError. A non-positive limit disables the check.
func NewMaxBodySizeHandler(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_, _ = w.Write([]byte(tooLargeBody))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

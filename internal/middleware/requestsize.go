package middleware

import (
	"net/http"
)

const (
	// DefaultMaxRequestSize is the body limit applied when none is given. The
	// API is read-only, so anything larger than a small body is rejected.
	DefaultMaxRequestSize int64 = 64 << 10
)

// MaxRequestSize rejects bodies larger than maxBytes with 413
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds a request when no timeout is given
const DefaultRequestTimeout = 30 * time.Second

// Timeout cancels the request context after timeout and answers 503 if the
// handler has not written a response by then
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, `{"success":false,"error":"Service Unavailable","message":"request timed out"}`)
	}
}

package middleware

import (
	"net/http"
	"time"

	logpkg "github.com/benvon/portfolio-api/internal/logger"
	"github.com/benvon/portfolio-api/internal/request"
	"go.uber.org/zap"
)

// Logging logs one line per request. Health checks and metric scrapes are
// logged at debug level.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			log := logger.Info
			switch r.URL.Path {
			case "/healthz", "/health", "/metrics":
				log = logger.Debug
			}

			log("http_request",
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.Int("status_code", rec.statusCode),
				zap.Int("bytes", rec.bytes),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("request_id", request.RequestID(r.Context())),
			)
		})
	}
}

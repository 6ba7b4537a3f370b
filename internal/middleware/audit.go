package middleware

import (
	"net/http"

	logpkg "github.com/benvon/portfolio-api/internal/logger"
	"github.com/benvon/portfolio-api/internal/request"
	"go.uber.org/zap"
)

// Audit logs rejected requests (401, 403, 429) for monitoring. trustProxy
// controls how the client IP is resolved, as for RateLimit.
func Audit(logger *zap.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			fields := func() []zap.Field {
				return []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("ip", logpkg.SanitizeString(request.ClientIP(r, trustProxy), logpkg.MaxGeneralStringLength)),
					zap.String("request_id", request.RequestID(r.Context())),
				}
			}

			switch rec.statusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				logger.Warn("security_event", append(fields(), zap.Int("status_code", rec.statusCode))...)
			case http.StatusTooManyRequests:
				logger.Warn("rate_limit_violation", fields()...)
			}
		})
	}
}

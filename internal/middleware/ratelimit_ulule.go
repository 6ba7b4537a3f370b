package middleware

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const (
	// DefaultRateLimit is the ulule-formatted per-IP limit applied to the API
	DefaultRateLimit = "30-M"

	rateLimitPrefix = "portfolio_api_ratelimit"
)

// RateLimit returns per-client-IP rate limiting middleware. Counters live in
// Redis when redisClient is non-nil so that replicas share them, otherwise in
// process memory. Clients are keyed by the remote address without its port;
// forwarding headers decide the key only when trustProxy is set.
func RateLimit(rateStr string, trustProxy bool, redisClient *redis.Client, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	if rateStr == "" {
		rateStr = DefaultRateLimit
	}
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		return nil, fmt.Errorf("parse rate limit %q: %w", rateStr, err)
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err != nil {
			return nil, fmt.Errorf("create redis rate limit store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
	}

	lim := limiter.New(store, rate, limiter.WithTrustForwardHeader(trustProxy))

	mw := stdlibmw.NewMiddleware(
		lim,
		stdlibmw.WithKeyGetter(lim.GetIPKey),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			respondErrorJSON(w, r, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded, try again later", logger)
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("rate_limit_store_error", zap.Error(err))
			respondErrorJSON(w, r, http.StatusServiceUnavailable, "Service Unavailable", "Rate limiter unavailable", logger)
		}),
	)
	return mw.Handler, nil
}

package middleware

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"secondbrain-backend/pkg/common"
	"secondbrain-backend/pkg/ratelimit"
)

// RateLimit rejects requests over the per-client allowance. Keys by client IP;
// the router's RealIP middleware runs first so proxies don't collapse
// everyone onto one bucket.
func RateLimit(limiter ratelimit.RateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				key = r.RemoteAddr
			}

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter error, allowing request", zap.Error(err))
				allowed = true
			}
			if !allowed {
				common.RespondError(w, http.StatusTooManyRequests,
					"RATE_LIMITED", "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"math"
	"net/http"
	"strconv"

	"wazuhgate/internal/logger"
	"wazuhgate/internal/metrics"
	"wazuhgate/internal/ratelimit"
	"wazuhgate/internal/reqctx"
	"wazuhgate/internal/respond"
)

// RateLimit enforces the per-client request-rate ceiling for sensitive
// routes. The limiter is constructor-injected so tests can substitute
// isolated instances.
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if rc, ok := reqctx.From(r.Context()); ok && rc.ClientIP != "" {
				key = rc.ClientIP
			}

			res := limiter.Allow(key)
			if !res.Allowed {
				log := logger.WithRequestID(reqctx.RequestID(r.Context()))
				log.Warn().
					Str("path", r.URL.Path).
					Str("client_ip", key).
					Dur("retry_after", res.RetryAfter).
					Msg("rate limit exceeded")
				metrics.RateLimitRejections.WithLabelValues(r.URL.Path).Inc()

				retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				respond.Error(w, r, http.StatusTooManyRequests, "Rate limit exceeded, retry later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

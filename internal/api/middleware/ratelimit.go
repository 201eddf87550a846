package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/platform/metrics"
	"github.com/phrazzld/taskflow-api/internal/platform/ratelimit"
)

// RateLimit allows at most limit requests per window from one client IP on
// the wrapped routes. Rejections get 429 with Retry-After.
func RateLimit(
	limiter ratelimit.Limiter,
	limit int,
	window time.Duration,
	m *metrics.Metrics,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r) + ":" + r.URL.Path
			decision := limiter.Allow(key, limit, window)

			if limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining(limit)))
			}

			if !decision.Allowed {
				retryAfter := int(time.Until(decision.WindowEnd).Seconds()) + 1
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				m.RateLimitHit(r.URL.Path)
				shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
					"Too many requests, please try again later", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. chi's RealIP middleware, when
// installed upstream, has already replaced RemoteAddr with the forwarded IP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

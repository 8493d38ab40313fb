package middleware

import (
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/akinalp/boardwatch/handlers"
	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/pkg"
	"github.com/akinalp/boardwatch/pkg/ratelimit"
)

// RateLimit limits requests per authenticated user, or per client IP when
// the request carries no user. Rejected requests get 429 and Retry-After.
//
// Keys are "user:<id>" or "ip:<addr>", each with its own token bucket in
// limiter. Behind Require the user key is used, so several users behind one
// NAT do not share a bucket; on public routes (token exchange) the IP is all
// there is. Retry-After is rounded up to whole seconds.
func RateLimit(limiter *ratelimit.KeyedLimiter, log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ratelimit")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + ratelimit.ExtractIP(r)
			if user, ok := r.Context().Value(handlers.UserContextKey).(*models.User); ok && user != nil {
				key = "user:" + user.ID
			}

			if !limiter.Allow(key) {
				wait := limiter.RetryAfter(key)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				log.Debug("request limited", zap.String("key", key), zap.String("path", r.URL.Path))
				pkg.Error(w, pkg.ErrTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Package ratelimit provides keyed token-bucket limiters for the HTTP layer.
//
// Each key (a user id, or a client IP for unauthenticated routes) gets its own
// golang.org/x/time/rate limiter. Limiters live in a bounded LRU, so idle keys
// are forgotten instead of accumulating for the life of the process.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"

	"github.com/akinalp/boardwatch/pkg/cache"
)

// KeyedLimiter rate-limits requests per key.
//
//	limiter := ratelimit.New(120, time.Minute, 10000, clock.New())
//	if !limiter.Allow(userID) { return 429 }
type KeyedLimiter struct {
	limit    rate.Limit
	burst    int
	clock    clock.Clock
	limiters *cache.LRU[string, *rate.Limiter]
}

// New allows events per period for each key, with a burst of events.
// At most capacity keys are tracked; keys idle for longer than period are
// dropped and start again with a full bucket.
func New(events int, period time.Duration, capacity int, clk clock.Clock) *KeyedLimiter {
	if clk == nil {
		clk = clock.New()
	}
	if events <= 0 {
		events = 1
	}
	return &KeyedLimiter{
		limit:    rate.Limit(float64(events) / period.Seconds()),
		burst:    events,
		clock:    clk,
		limiters: cache.New[string, *rate.Limiter](capacity, period, clk),
	}
}

// Allow consumes one event for key and reports whether it was within limits.
func (l *KeyedLimiter) Allow(key string) bool {
	return l.limiter(key).AllowN(l.clock.Now(), 1)
}

// RetryAfter is how long key has to wait for its next event.
func (l *KeyedLimiter) RetryAfter(key string) time.Duration {
	now := l.clock.Now()
	r := l.limiter(key).ReserveN(now, 1)
	if !r.OK() {
		return 0
	}
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return delay
}

func (l *KeyedLimiter) limiter(key string) *rate.Limiter {
	var lim *rate.Limiter
	l.limiters.Update(key, func(current *rate.Limiter, found bool) (*rate.Limiter, bool) {
		if found {
			lim = current
		} else {
			lim = rate.NewLimiter(l.limit, l.burst)
		}
		return lim, true
	})
	return lim
}

// ExtractIP returns the client address of r: the first X-Forwarded-For
// entry, then X-Real-IP, then the host part of RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

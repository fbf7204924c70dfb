package httpserver

import (
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/assetgw-go/internal/core/domain"
	"github.com/yndnr/assetgw-go/internal/server/httpserver/handler"
	"github.com/yndnr/assetgw-go/pkg/cmap"
)

const (
	// limiterIdleTTL is how long an address's bucket survives without traffic.
	limiterIdleTTL = 10 * time.Minute
	// sweepEvery is the number of requests between idle bucket sweeps.
	sweepEvery = 512
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client address.
type ipLimiter struct {
	limit    rate.Limit
	burst    int
	visitors *cmap.Map[string, *visitor]
	hits     atomic.Uint64
	now      func() time.Time
}

func newIPLimiter(requestsPerSecond, burst int) *ipLimiter {
	if burst <= 0 {
		burst = requestsPerSecond
	}
	return &ipLimiter{
		limit:    rate.Limit(requestsPerSecond),
		burst:    burst,
		visitors: cmap.New[string, *visitor](),
		now:      time.Now,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	now := l.now()
	var allowed bool
	l.visitors.Update(ip, func(v *visitor, exists bool) (*visitor, bool) {
		if !exists {
			v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		}
		v.lastSeen = now
		allowed = v.limiter.AllowN(now, 1)
		return v, true
	})

	if l.hits.Add(1)%sweepEvery == 0 {
		l.sweep(now)
	}
	return allowed
}

// sweep drops buckets idle for longer than limiterIdleTTL.
func (l *ipLimiter) sweep(now time.Time) {
	cutoff := now.Add(-limiterIdleTTL)
	for _, ip := range l.visitors.Keys() {
		l.visitors.Update(ip, func(v *visitor, exists bool) (*visitor, bool) {
			return v, exists && !v.lastSeen.Before(cutoff)
		})
	}
}

// RateLimit applies per-client-IP token bucket limiting. A non-positive
// rate disables it.
func RateLimit(requestsPerSecond, burst int) Middleware {
	if requestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newIPLimiter(requestsPerSecond, burst)
	return rateLimit(l)
}

func rateLimit(l *ipLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(getClientIP(r)) {
				w.Header().Set("Retry-After", "1")
				handler.WriteDomainError(w, r, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"sync"
	"time"

	"course-enrollment/internal/handler/httperr"
	"course-enrollment/internal/pkg/config"
	"course-enrollment/internal/pkg/errs"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

var errRateLimited = errs.New("rate limit exceeded")

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a token bucket per authenticated caller, keyed by user id.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	now      func() time.Time

	lastSweep time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(cfg.PerSecond),
		burst:    cfg.Burst,
		now:      time.Now,
	}
}

// Limit must run after ResolveCaller. Anonymous callers pass through so the
// command reports UNAUTHENTICATED; that rejection makes no outbound call.
func (r *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := GetCaller(c)
		if !caller.Authenticated() {
			c.Next()
			return
		}

		if !r.allow("user:" + caller.UserID()) {
			httperr.AbortWithError(c, httperr.KindResourceExhausted, errRateLimited, "Too many requests", nil)
			return
		}
		c.Next()
	}
}

func (r *RateLimiter) allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[key] = entry
	}
	entry.lastSeen = now
	r.evictIdle(now)

	return entry.limiter.AllowN(now, 1)
}

// evictIdle runs under mu.
func (r *RateLimiter) evictIdle(now time.Time) {
	if now.Sub(r.lastSweep) < limiterIdleTTL {
		return
	}
	r.lastSweep = now
	for k, e := range r.limiters {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(r.limiters, k)
		}
	}
}

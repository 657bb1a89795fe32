package api

import (
	"sync"
	"time"

	"github.com/alfanzaky/queuehub/pkg/logger"
	"github.com/alfanzaky/queuehub/pkg/metrics"
	"github.com/alfanzaky/queuehub/pkg/xresponse"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an unused bucket is kept. A bucket idle this
// long has refilled completely, so dropping it loses no state.
const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per principal
type RateLimiter struct {
	limiters  map[string]*limiterEntry
	mu        sync.Mutex
	r         rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter builds a limiter allowing perMinute requests per principal.
// A non-positive value disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		r:        rate.Inf,
		idleTTL:  limiterIdleTTL,
		now:      time.Now,
	}
	if perMinute > 0 {
		rl.r = rate.Limit(float64(perMinute) / 60)
		rl.burst = perMinute
	}
	rl.lastSweep = rl.now()
	return rl
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idleTTL {
		rl.sweep(now)
	}

	entry, exists := rl.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// sweep drops buckets idle for longer than idleTTL. Callers hold mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) >= rl.idleTTL {
			delete(rl.limiters, key)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Allow reports whether key may issue one more request now
func (rl *RateLimiter) Allow(key string) bool {
	if rl.r == rate.Inf {
		return true
	}
	return rl.getLimiter(key).Allow()
}

// Middleware limits requests per authenticated principal, falling back to
// the client IP. It must run after the auth middleware.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID := c.GetString(ctxKeyUserID); userID != "" {
			key = c.GetString(ctxKeyTenantID) + "/" + userID
		}

		if !rl.Allow(key) {
			metrics.RecordRateLimited(c.FullPath())
			logger.Warn("Rate limit exceeded",
				logger.String("key", key),
				logger.String("path", c.Request.URL.Path),
			)
			xresponse.RateLimitExceeded(c, "Rate limit exceeded, slow down")
			c.Abort()
			return
		}

		c.Next()
	}
}

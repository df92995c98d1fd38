package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/orienteer/internal/httputil"
)

// maxBuckets caps the number of tracked IPs.
const maxBuckets = 100_000

// CostFunc prices a request in tokens. Values below 1 are charged as 1.
type CostFunc func(c *gin.Context) float64

// RateLimiter is a per-IP token bucket.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   float64
	now     func() time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter refilling ratePerSec tokens per second up
// to burst. Stale buckets are evicted until ctx is cancelled.
func NewRateLimiter(ctx context.Context, ratePerSec, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    float64(ratePerSec),
		burst:   float64(burst),
		now:     time.Now,
	}
	go rl.cleanupLoop(ctx)

	return rl
}

func (rl *RateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	const maxAge = 10 * time.Minute

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, b := range rl.buckets {
				if now.Sub(b.lastSeen) > maxAge {
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// take charges cost tokens to ip. full is set when a new ip cannot be tracked.
func (rl *RateLimiter) take(ip string, cost float64) (allowed, full bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	b, ok := rl.buckets[ip]
	if !ok {
		if len(rl.buckets) >= maxBuckets {
			return false, true
		}

		b = &bucket{tokens: rl.burst, lastSeen: now}
		rl.buckets[ip] = b
	}

	b.tokens = min(rl.burst, b.tokens+now.Sub(b.lastSeen).Seconds()*rl.rate)
	b.lastSeen = now

	if b.tokens < cost {
		return false, false
	}

	b.tokens -= cost

	return true, false
}

// Handler charges one token per request.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return rl.WeightedHandler(nil)
}

// WeightedHandler charges cost(c) tokens per request, capped at the burst size
// so that any single request can eventually pass.
func (rl *RateLimiter) WeightedHandler(cost CostFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		price := 1.0
		if cost != nil {
			price = min(max(cost(c), 1), rl.burst)
		}

		// ClientIP ignores forwarding headers because the router trusts no proxies.
		allowed, full := rl.take(c.ClientIP(), price)

		switch {
		case full:
			httputil.RespondError(c, http.StatusTooManyRequests, "rate_limited", "too many clients")
		case !allowed:
			httputil.RespondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
		default:
			c.Next()
		}
	}
}

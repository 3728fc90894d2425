// Package middleware provides HTTP middleware for the mindmap server.
package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/mindmap/internal/httputil"
)

// maxBuckets is the maximum number of tracked clients to prevent memory exhaustion.
const maxBuckets = 100_000

// RateLimiter is a token bucket per client IP. Separate limiters can guard
// separate route groups, e.g. a tight one in front of graph generation.
type RateLimiter struct {
	name    string
	buckets map[string]*bucket
	mu      sync.Mutex
	rate    float64
	burst   float64
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

// take refills by elapsed time and consumes one token. When empty it returns
// how long until the next token.
func (b *bucket) take(now time.Time, rate, burst float64) (bool, time.Duration) {
	b.tokens = math.Min(burst, b.tokens+now.Sub(b.lastFill).Seconds()*rate)
	b.lastFill = now

	if b.tokens >= 1 {
		b.tokens--

		return true, 0
	}

	wait := time.Duration((1 - b.tokens) / rate * float64(time.Second))

	return false, wait
}

// NewRateLimiter creates a RateLimiter with the given requests per second and burst size.
// It starts a background goroutine to evict stale buckets, which stops when ctx is cancelled.
func NewRateLimiter(ctx context.Context, ratePerSec float64, burst int) *RateLimiter {
	return NewNamedRateLimiter(ctx, "default", ratePerSec, burst)
}

// NewNamedRateLimiter is NewRateLimiter with a name used in error messages.
func NewNamedRateLimiter(ctx context.Context, name string, ratePerSec float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		name:    name,
		buckets: make(map[string]*bucket),
		rate:    ratePerSec,
		burst:   float64(burst),
	}
	go rl.startCleanup(ctx)

	return rl
}

// startCleanup periodically evicts buckets that have refilled completely.
func (rl *RateLimiter) startCleanup(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, b := range rl.buckets {
				if b.tokens+now.Sub(b.lastFill).Seconds()*rl.rate >= rl.burst {
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Handler returns Gin middleware that applies rate limiting per client IP.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// SetTrustedProxies(nil) in the router keeps ClientIP from trusting
		// forwarded headers.
		ip := c.ClientIP()
		now := time.Now()

		rl.mu.Lock()
		b, ok := rl.buckets[ip]
		if !ok {
			if len(rl.buckets) >= maxBuckets {
				rl.mu.Unlock()
				httputil.RespondError(c, http.StatusTooManyRequests, "rate_limited", "too many clients")

				return
			}

			b = &bucket{tokens: rl.burst, lastFill: now}
			rl.buckets[ip] = b
		}

		allowed, wait := b.take(now, rl.rate, rl.burst)
		rl.mu.Unlock()

		if !allowed {
			secs := int(math.Ceil(wait.Seconds()))
			c.Header("Retry-After", strconv.Itoa(max(secs, 1)))
			httputil.RespondError(c, http.StatusTooManyRequests, "rate_limited", rl.name+" rate limit exceeded")

			return
		}

		c.Next()
	}
}

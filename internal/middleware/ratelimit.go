package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"leadcompass/internal/pkg/response"
)

const visitorSweepInterval = 3 * time.Minute

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*rate.Limiter
	r         rate.Limit
	b         int
	lastSweep time.Time
}

func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		visitors:  make(map[string]*rate.Limiter),
		r:         rate.Limit(float64(requestsPerMinute) / 60.0),
		b:         burst,
		lastSweep: time.Now(),
	}
}

// GetLimiter returns the bucket for ip. Idle buckets are dropped every few minutes.
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastSweep) > visitorSweepInterval {
		for k, l := range rl.visitors {
			if l.Tokens() >= float64(rl.b) {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = time.Now()
	}

	limiter, ok := rl.visitors[ip]
	if !ok {
		limiter = rate.NewLimiter(rl.r, rl.b)
		rl.visitors[ip] = limiter
	}
	return limiter
}

// Middleware rejects requests over the limit with 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.GetLimiter(c.ClientIP()).Allow() {
			response.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}

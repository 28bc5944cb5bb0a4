package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dobriak/mini-ipam/models"
)

// RateLimiter keeps one x/time/rate limiter per identifier and drops the
// ones that have refilled completely.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a new rate limiter allowing rps requests per second
// with the given burst, sweeping idle identifiers every cleanup interval.
// Call Stop to end the sweeper.
func NewRateLimiter(rps float64, burst int, cleanup time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		stopCh:   make(chan struct{}),
	}
	if cleanup > 0 {
		go rl.cleanupLoop(cleanup)
	}
	return rl
}

func (rl *RateLimiter) getLimiter(identifier string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[identifier]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[identifier] = limiter
	}
	return limiter
}

func (rl *RateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// sweep removes limiters whose bucket is full again.
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for identifier, limiter := range rl.limiters {
		if limiter.Tokens() >= float64(rl.burst) {
			delete(rl.limiters, identifier)
		}
	}
}

func (rl *RateLimiter) allow(identifier string) bool {
	return rl.getLimiter(identifier).Allow()
}

// RateLimitByIP creates middleware that rate limits requests by client IP address.
//
// Example:
//
//	limiter := NewRateLimiter(10.0, 20, time.Minute) // 10 req/s, burst of 20
//	defer limiter.Stop()
//	router.Use(RateLimitByIP(limiter))
func RateLimitByIP(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMITED", models.ErrRateLimitExceeded.Error())
			return
		}
		c.Next()
	}
}

// RateLimitByToken rate limits requests by authenticated API token name, so
// writers sharing one address get separate budgets. Requests without a token
// pass through; RateLimitByIP covers them. Use this after
// RequireAPITokenForWrites.
func RateLimitByToken(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := GetTokenName(c)
		if name == "" {
			c.Next()
			return
		}

		if !limiter.allow("token:" + name) {
			GetLogger(c).Warn("token rate limit exceeded", zap.String("token_name", name))
			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMITED", models.ErrRateLimitExceeded.Error())
			return
		}
		c.Next()
	}
}

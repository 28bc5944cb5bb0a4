package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dobriak/mini-ipam/server/internal/ratelimit"
)

// AdvancedRateLimitMiddleware applies the per-minute budgets from
// ratelimit.Config and answers with a Retry-After header when exhausted.
type AdvancedRateLimitMiddleware struct {
	limiter *ratelimit.Limiter
}

// NewAdvancedRateLimitMiddleware creates a new advanced rate limit middleware.
func NewAdvancedRateLimitMiddleware(config ratelimit.Config) *AdvancedRateLimitMiddleware {
	return &AdvancedRateLimitMiddleware{
		limiter: ratelimit.NewLimiter(config),
	}
}

// RateLimitWrites limits POST, PUT and DELETE requests per client IP.
// Safe methods pass through untouched.
func (m *AdvancedRateLimitMiddleware) RateLimitWrites() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		m.apply(c, ratelimit.LimitTypeWrite, "Rate limit exceeded for writes")
	}
}

// RateLimitLookups limits most-specific collection lookups per client IP.
func (m *AdvancedRateLimitMiddleware) RateLimitLookups() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.apply(c, ratelimit.LimitTypeLookup, "Rate limit exceeded for lookups")
	}
}

// RateLimitHealthCheck applies rate limiting for unauthenticated health check requests.
func (m *AdvancedRateLimitMiddleware) RateLimitHealthCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.apply(c, ratelimit.LimitTypeHealthCheck, "Rate limit exceeded for health checks")
	}
}

// RateLimitAuthFailure consumes one authentication failure from the client
// IP's budget. RequireAPITokenForWrites calls it on every rejected token.
func (m *AdvancedRateLimitMiddleware) RateLimitAuthFailure(c *gin.Context) (allowed bool, retryAfter int) {
	key := ratelimit.BuildKey(c.ClientIP(), ratelimit.LimitTypeAuthFailure)
	return m.limiter.Allow(key, ratelimit.LimitTypeAuthFailure)
}

// Stop gracefully stops the rate limiter.
func (m *AdvancedRateLimitMiddleware) Stop() {
	m.limiter.Stop()
}

func (m *AdvancedRateLimitMiddleware) apply(c *gin.Context, limitType ratelimit.LimitType, message string) {
	key := ratelimit.BuildKey(c.ClientIP(), limitType)

	allowed, retryAfter := m.limiter.Allow(key, limitType)
	if !allowed {
		GetLogger(c).Warn("rate limit exceeded", zap.String("limit_type", string(limitType)), zap.Int("retry_after", retryAfter))
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		abortWithError(c, http.StatusTooManyRequests, "RATE_LIMITED", message)
		return
	}
	c.Next()
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

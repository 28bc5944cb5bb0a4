package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dobriak/mini-ipam/models"
)

// HeaderAPIToken is the header name for API token authentication.
const HeaderAPIToken = "X-Mini-IPAM-Token"

const (
	ctxKeyTokenID   = "token_id"
	ctxKeyTokenName = "token_name"
)

// TokenAuthenticator resolves a presented API token to its stored record.
// It returns models.ErrInvalidToken for unknown tokens.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, provided string) (*models.APIToken, error)
}

// AuthConfig holds configuration for authentication middleware.
type AuthConfig struct {
	// Tokens checks presented tokens. Authentication is disabled when nil.
	Tokens TokenAuthenticator

	// Limiter, when set, budgets authentication failures per client IP.
	Limiter *AdvancedRateLimitMiddleware
}

// respondAuthError sends an authentication error response.
//
// The message is the same for every failure so responses do not reveal
// whether a token exists.
func respondAuthError(c *gin.Context) {
	abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", models.ErrUnauthorized.Error())
}

// RequireAPITokenForWrites creates middleware that requires a valid
// X-Mini-IPAM-Token on POST, PUT and DELETE. GET, HEAD and OPTIONS stay open.
//
// This middleware:
// - Passes every request through when config.Tokens is nil
// - Rejects missing or unknown tokens with 401
// - Charges each rejection to the client IP's auth failure budget and
//   answers 429 with Retry-After once it is spent
// - Sets token_id and token_name in context on success
func RequireAPITokenForWrites(config *AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config == nil || config.Tokens == nil || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		authenticate(c, config)
	}
}

func authenticate(c *gin.Context, config *AuthConfig) {
	provided := c.GetHeader(HeaderAPIToken)
	if provided == "" {
		rejectToken(c, config, "missing token")
		return
	}

	tok, err := config.Tokens.Authenticate(c.Request.Context(), provided)
	if errors.Is(err, models.ErrInvalidToken) {
		rejectToken(c, config, "invalid token")
		return
	}
	if err != nil {
		GetLogger(c).Error("token lookup failed", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", models.ErrInternalError.Error())
		return
	}

	c.Set(ctxKeyTokenID, tok.ID)
	c.Set(ctxKeyTokenName, tok.Name)
	c.Next()
}

func rejectToken(c *gin.Context, config *AuthConfig, reason string) {
	GetLogger(c).Warn("authentication failed", zap.String("reason", reason))

	if config.Limiter != nil {
		if allowed, retryAfter := config.Limiter.RateLimitAuthFailure(c); !allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many authentication failures")
			return
		}
	}
	respondAuthError(c)
}

// GetTokenName returns the name of the authenticated API token, or "".
func GetTokenName(c *gin.Context) string {
	if name, exists := c.Get(ctxKeyTokenName); exists {
		if s, ok := name.(string); ok {
			return s
		}
	}
	return ""
}

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/server/internal/ratelimit"
)

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestAdvancedRateLimitMiddleware_RateLimitWrites(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mw := NewAdvancedRateLimitMiddleware(ratelimit.Config{WritesPerMin: 2})
	defer mw.Stop()

	router := gin.New()
	router.Use(mw.RateLimitWrites())
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.GET("/collections", ok)
	router.POST("/collections", ok)

	for i := 0; i < 2; i++ {
		if w := serve(router, http.MethodPost, "/collections"); w.Code != http.StatusOK {
			t.Fatalf("write %d: status %d", i+1, w.Code)
		}
	}

	w := serve(router, http.MethodPost, "/collections")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third write: status %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header should be present")
	}
	var body models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Code != "RATE_LIMITED" {
		t.Fatalf("unexpected body %s (%v)", w.Body.String(), err)
	}

	// Reads are not charged against the write budget.
	for i := 0; i < 5; i++ {
		if w := serve(router, http.MethodGet, "/collections"); w.Code != http.StatusOK {
			t.Fatalf("read %d: status %d", i+1, w.Code)
		}
	}
}

func TestAdvancedRateLimitMiddleware_RateLimitLookups(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mw := NewAdvancedRateLimitMiddleware(ratelimit.Config{LookupsPerMin: 1})
	defer mw.Stop()

	router := gin.New()
	router.GET("/lookup", mw.RateLimitLookups(), func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(router, http.MethodGet, "/lookup"); w.Code != http.StatusOK {
		t.Fatalf("first lookup: status %d", w.Code)
	}
	if w := serve(router, http.MethodGet, "/lookup"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second lookup: status %d, want 429", w.Code)
	}
}

func TestAdvancedRateLimitMiddleware_RateLimitHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mw := NewAdvancedRateLimitMiddleware(ratelimit.Config{HealthChecksPerMin: 3})
	defer mw.Stop()

	router := gin.New()
	router.Use(mw.RateLimitHealthCheck())
	router.GET("/health/live", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		if w := serve(router, http.MethodGet, "/health/live"); w.Code != http.StatusOK {
			t.Fatalf("check %d: status %d", i+1, w.Code)
		}
	}
	if w := serve(router, http.MethodGet, "/health/live"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("fourth check: status %d, want 429", w.Code)
	}
}

func TestAdvancedRateLimitMiddleware_RateLimitAuthFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mw := NewAdvancedRateLimitMiddleware(ratelimit.Config{AuthFailuresPerMin: 2})
	defer mw.Stop()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	for i := 0; i < 2; i++ {
		if allowed, _ := mw.RateLimitAuthFailure(c); !allowed {
			t.Fatalf("failure %d should be allowed", i+1)
		}
	}
	allowed, retryAfter := mw.RateLimitAuthFailure(c)
	if allowed || retryAfter <= 0 {
		t.Fatalf("allowed=%v retryAfter=%d", allowed, retryAfter)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dobriak/mini-ipam/server/internal/logging"
)

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, logs := newObservedLogger()

	var ctxRequestID string
	router := gin.New()
	router.Use(RequestLogger(logger))
	router.GET("/test", func(c *gin.Context) {
		ctxRequestID = logging.RequestID(c.Request.Context())
		if GetRequestID(c) != ctxRequestID {
			t.Errorf("gin and request context disagree on request id")
		}
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("User-Agent", "test-agent")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ctxRequestID == "" || w.Header().Get(HeaderRequestID) != ctxRequestID {
		t.Fatalf("request id %q not echoed, header %q", ctxRequestID, w.Header().Get(HeaderRequestID))
	}

	completed := logs.FilterMessage("request completed").All()
	if len(completed) != 1 {
		t.Fatalf("expected one completion log, got %d", len(completed))
	}
	fields := completed[0].ContextMap()
	if fields[logging.FieldRequestID] != ctxRequestID || fields[logging.FieldUserAgent] != "test-agent" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestRequestLogger_ReusesIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, _ := newObservedLogger()

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Fatalf("request id = %q, want abc-123", got)
	}
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		status  int
		message string
		level   zapcore.Level
	}{
		{http.StatusOK, "request completed", zapcore.InfoLevel},
		{http.StatusBadRequest, "request completed with client error", zapcore.WarnLevel},
		{http.StatusInternalServerError, "request completed with server error", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			logger, logs := newObservedLogger()
			router := gin.New()
			router.Use(RequestLogger(logger))
			router.GET("/test", func(c *gin.Context) { c.Status(tt.status) })

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

			entries := logs.FilterMessage(tt.message).All()
			if len(entries) != 1 || entries[0].Level != tt.level {
				t.Fatalf("expected one %s entry %q, got %v", tt.level, tt.message, logs.All())
			}
		})
	}
}

func TestGetLogger_NotSet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if GetLogger(c) == nil {
		t.Fatal("expected no-op logger")
	}
	if GetRequestID(c) != "" {
		t.Fatal("expected empty request id")
	}
}

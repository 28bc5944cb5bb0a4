package helpers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dobriak/mini-ipam/server/internal/api"
	"github.com/dobriak/mini-ipam/server/internal/metrics"
)

// TestSecret is the HMAC secret used by servers that require tokens.
const TestSecret = "e2e-secret-e2e-secret-e2e-secret!"

// ServerOptions tunes NewTestServer.
type ServerOptions struct {
	// Secret enables token checks on write routes.
	Secret string
}

// NewTestServer serves the production router over db.
func NewTestServer(t *testing.T, db *TestDB, opts ServerOptions) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	metrics.MustInit()

	router, stop := api.SetupRouter(&api.RouterConfig{
		DB:         db.DB,
		Logger:     TestLogger(t),
		HMACSecret: opts.Secret,
		InstanceID: "e2e-instance",
		// Scenarios send bursts from one address.
		GlobalRPS:   10000,
		GlobalBurst: 10000,
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		stop()
	})
	return server
}

package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dobriak/mini-ipam/server/internal/api/middleware"
	"github.com/dobriak/mini-ipam/server/internal/metrics"
)

// HealthHandler handles health check endpoints for load balancers and
// orchestrators.
type HealthHandler struct {
	db         *sql.DB
	instanceID string
	startedAt  time.Time
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(db *sql.DB, instanceID string) *HealthHandler {
	return &HealthHandler{
		db:         db,
		instanceID: instanceID,
		startedAt:  time.Now(),
	}
}

// LivenessResponse represents the liveness probe response.
type LivenessResponse struct {
	Status     string `json:"status"`
	InstanceID string `json:"instance_id"`
	Uptime     string `json:"uptime"`
}

// ReadinessResponse represents the readiness probe response.
type ReadinessResponse struct {
	Status     string `json:"status"`
	InstanceID string `json:"instance_id"`
	Database   string `json:"database"`
}

// Liveness handles GET /health/live. It returns 200 while the process serves HTTP.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:     "ok",
		InstanceID: h.instanceID,
		Uptime:     time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// Readiness handles GET /health/ready.
//
// Returns:
//   - 200 OK when the database answers a ping within two seconds
//   - 503 Service Unavailable otherwise
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		middleware.GetLogger(c).Warn("readiness check failed", zap.Error(err))
		respondError(c, http.StatusServiceUnavailable, CodeUnavailable, "database unavailable")
		return
	}
	metrics.RecordDBStats(h.db.Stats())

	c.JSON(http.StatusOK, ReadinessResponse{
		Status:     "ready",
		InstanceID: h.instanceID,
		Database:   "connected",
	})
}

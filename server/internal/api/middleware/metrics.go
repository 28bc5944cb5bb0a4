package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dobriak/mini-ipam/server/internal/metrics"
)

// unmatchedRoute labels requests that hit no route, so scanners probing
// random paths cannot grow label cardinality.
const unmatchedRoute = "unmatched"

// MetricsMiddleware creates a middleware that collects Prometheus metrics for HTTP requests.
//
// Requests are labelled by route template (c.FullPath), not raw URL, so
// /api/v1/nodes/1 and /api/v1/nodes/2 share a series.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()

		c.Next()

		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		if size := c.Writer.Size(); size >= 0 {
			metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}

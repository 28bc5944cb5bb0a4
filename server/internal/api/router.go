// Package api provides the REST API for mini-ipam.
//
// This package wires Gin routing, middleware and handlers on top of the
// service layer. Handlers live in api/handlers and middleware in
// api/middleware.
package api

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dobriak/mini-ipam/server/internal/api/handlers"
	"github.com/dobriak/mini-ipam/server/internal/api/middleware"
	"github.com/dobriak/mini-ipam/server/internal/metrics"
	"github.com/dobriak/mini-ipam/server/internal/ratelimit"
	"github.com/dobriak/mini-ipam/server/internal/service"
)

// RouterConfig holds configuration for setting up the HTTP router.
type RouterConfig struct {
	// DB is the database connection.
	DB *sql.DB

	// Logger is the Zap logger for request logging.
	Logger *zap.Logger

	// HMACSecret keys API token hashes. Write routes require a token only
	// when it is set.
	HMACSecret string

	// InstanceID is this server instance's UUID, reported by health checks.
	InstanceID string

	// AllowOrigins is the list of allowed CORS origins.
	// Use []string{"*"} to allow all origins.
	AllowOrigins []string

	// RateLimit sets the per-minute write, lookup, health check and auth
	// failure budgets. The zero value selects ratelimit.DefaultConfig.
	RateLimit ratelimit.Config

	// GlobalRPS and GlobalBurst bound all requests per client IP.
	// Zero selects 100 req/s with a burst of 200.
	GlobalRPS   float64
	GlobalBurst int

	// TokenRPS and TokenBurst bound authenticated requests per API token.
	// Zero selects 10 req/s with a burst of 20.
	TokenRPS   float64
	TokenBurst int
}

// SetupRouter creates and configures the Gin HTTP router with all routes and middleware.
//
// This function sets up:
// - Global middleware (recovery, metrics, logging, CORS, per-IP rate limiting)
// - Health check and metrics endpoints (no auth required)
// - Collection and node endpoints (token required for writes when a secret is set)
// - The lookup endpoint (open, with its own budget)
//
// The returned stop function ends the rate limiters' cleanup goroutines.
// Call it once the router no longer serves requests.
func SetupRouter(config *RouterConfig) (*gin.Engine, func()) {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	if len(config.AllowOrigins) > 0 {
		router.Use(middleware.CORS(config.AllowOrigins))
	}

	rps, burst := orDefault(config.GlobalRPS, config.GlobalBurst, 100, 200)
	ipLimiter := middleware.NewRateLimiter(rps, burst, time.Minute)
	router.Use(middleware.RateLimitByIP(ipLimiter))

	rps, burst = orDefault(config.TokenRPS, config.TokenBurst, 10, 20)
	tokenLimiter := middleware.NewRateLimiter(rps, burst, 5*time.Minute)

	limits := config.RateLimit
	if limits == (ratelimit.Config{}) {
		limits = ratelimit.DefaultConfig()
	}
	limiter := middleware.NewAdvancedRateLimitMiddleware(limits)

	stop := func() {
		ipLimiter.Stop()
		tokenLimiter.Stop()
		limiter.Stop()
	}

	authConfig := &middleware.AuthConfig{Limiter: limiter}
	if config.HMACSecret != "" {
		authConfig.Tokens = service.NewTokenService(config.DB, logger, config.HMACSecret)
	}

	services := service.New(config.DB, logger)
	collectionHandler := handlers.NewCollectionHandler(services.Collections, services.Nodes)
	nodeHandler := handlers.NewNodeHandler(services.Nodes)
	lookupHandler := handlers.NewLookupHandler(services.Lookup)
	healthHandler := handlers.NewHealthHandler(config.DB, config.InstanceID)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		metrics.Registry,
		promhttp.HandlerOpts{},
	)))

	health := router.Group("/health")
	health.Use(limiter.RateLimitHealthCheck())
	{
		health.GET("/live", healthHandler.Liveness)
		health.GET("/ready", healthHandler.Readiness)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireAPITokenForWrites(authConfig))
	v1.Use(middleware.RateLimitByToken(tokenLimiter))
	v1.Use(limiter.RateLimitWrites())

	collections := v1.Group("/collections")
	{
		collections.GET("", collectionHandler.List)
		collections.POST("", collectionHandler.Create)
		collections.GET("/:id", collectionHandler.Get)
		collections.PUT("/:id", collectionHandler.Update)
		collections.DELETE("/:id", collectionHandler.Delete)
		collections.GET("/:id/info", collectionHandler.Info)
		collections.GET("/:id/nodes", collectionHandler.Nodes)
	}

	nodes := v1.Group("/nodes")
	{
		nodes.GET("", nodeHandler.List)
		nodes.POST("", nodeHandler.Create)
		nodes.GET("/:id", nodeHandler.Get)
		nodes.PUT("/:id", nodeHandler.Update)
		nodes.DELETE("/:id", nodeHandler.Delete)
	}

	v1.GET("/lookup", limiter.RateLimitLookups(), lookupHandler.Lookup)

	return router, stop
}

func orDefault(rps float64, burst int, defRPS float64, defBurst int) (float64, int) {
	if rps <= 0 {
		rps = defRPS
	}
	if burst <= 0 {
		burst = defBurst
	}
	return rps, burst
}

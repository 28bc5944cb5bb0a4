// Package main provides the mini-ipam server.
//
// This is the main entrypoint for the mini-ipam-server binary, which serves
// the collections and nodes REST API over a SQLite database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dobriak/mini-ipam/server/cmd/mini-ipam-server/cmd"
	"github.com/dobriak/mini-ipam/server/internal/api"
	"github.com/dobriak/mini-ipam/server/internal/database"
	"github.com/dobriak/mini-ipam/server/internal/logging"
	"github.com/dobriak/mini-ipam/server/internal/metrics"
	"github.com/dobriak/mini-ipam/server/internal/ratelimit"
	"github.com/dobriak/mini-ipam/server/internal/service"
	"github.com/dobriak/mini-ipam/server/internal/util"
)

// Version is set at build time.
var Version = "dev"

// Config holds server configuration from flags and environment variables.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":3001").
	ListenAddr string

	// DatabasePath is the path to the SQLite database file.
	DatabasePath string

	// HMACSecret keys API token hashes. Empty disables token auth.
	HMACSecret string

	// InstanceID is this server instance's UUID.
	InstanceID string

	// LogLevel is the logging level (debug, info, warn, error).
	LogLevel string

	// LogFormat is the log format (json, console).
	LogFormat string

	// AllowOrigins is comma-separated list of allowed CORS origins.
	AllowOrigins string

	// WritesPerMin is the per-IP budget for collection and node writes.
	WritesPerMin int

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// parseFlags parses command-line flags and environment variables.
func parseFlags(args []string) (*Config, error) {
	config := &Config{}
	fs := flag.NewFlagSet("mini-ipam-server", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "listen", getEnv("MINI_IPAM_LISTEN_ADDR", ":3001"),
		"Address to listen on")
	fs.StringVar(&config.DatabasePath, "db", getEnv("MINI_IPAM_DB_PATH", "./ipam.db"),
		"Path to SQLite database file")
	fs.StringVar(&config.HMACSecret, "secret", getEnv("MINI_IPAM_HMAC_SECRET", ""),
		"HMAC secret for API tokens (min 32 bytes; empty disables write auth)")
	fs.StringVar(&config.InstanceID, "instance-id", getEnv("MINI_IPAM_INSTANCE_ID", ""),
		"Server instance UUID (auto-generated if not provided)")
	fs.StringVar(&config.LogLevel, "log-level", getEnv("MINI_IPAM_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	fs.StringVar(&config.LogFormat, "log-format", getEnv("MINI_IPAM_LOG_FORMAT", "console"),
		"Log format (json, console)")
	fs.StringVar(&config.AllowOrigins, "cors-origins", getEnv("MINI_IPAM_CORS_ORIGINS", ""),
		"Comma-separated list of allowed CORS origins (* for all)")
	fs.IntVar(&config.WritesPerMin, "writes-per-min", getEnvInt("MINI_IPAM_WRITES_PER_MIN", ratelimit.DefaultConfig().WritesPerMin),
		"Per-IP budget for collection and node writes")
	fs.DurationVar(&config.ShutdownTimeout, "shutdown-timeout", 10*time.Second,
		"Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return config, nil
}

// getEnv retrieves an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

// validateConfig validates the server configuration.
func validateConfig(config *Config) error {
	if err := util.ValidateListenAddr(config.ListenAddr); err != nil {
		return err
	}
	if err := util.ValidateSecret(config.HMACSecret); err != nil {
		return err
	}

	if config.InstanceID == "" {
		config.InstanceID = uuid.New().String()
	}
	if err := util.ValidateUUID(config.InstanceID); err != nil {
		return fmt.Errorf("invalid instance ID format: %w", err)
	}

	if err := util.ValidateOrigins(parseCORSOrigins(config.AllowOrigins)); err != nil {
		return err
	}
	if config.WritesPerMin <= 0 {
		return fmt.Errorf("writes-per-min must be positive (got %d)", config.WritesPerMin)
	}
	return nil
}

// parseCORSOrigins splits the comma-separated CORS origins string.
func parseCORSOrigins(origins string) []string {
	var result []string
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			result = append(result, origin)
		}
	}
	return result
}

func main() {
	// A missing .env is normal; real environment variables still apply.
	_ = godotenv.Load()

	if len(os.Args) > 1 && os.Args[1] == "util" {
		if err := cmd.ExecuteUtil(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	config, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if err := validateConfig(config); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:            config.LogLevel,
		Format:           logging.ParseFormat(config.LogFormat),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(config, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(config *Config, logger *zap.Logger) error {
	logger.Info("starting mini-ipam-server",
		zap.String("version", Version),
		zap.String("instance_id", config.InstanceID),
		zap.String("listen_addr", config.ListenAddr),
		zap.String("log_level", config.LogLevel),
		zap.Bool("write_auth", config.HMACSecret != ""),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, config.DatabasePath, database.DefaultOptions(), logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, logger); err != nil {
		return err
	}

	if err := metrics.Init(); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	if err := service.RefreshInventory(ctx, db); err != nil {
		logger.Warn("failed to seed inventory gauges", zap.Error(err))
	}

	if config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	limits := ratelimit.DefaultConfig()
	limits.WritesPerMin = config.WritesPerMin

	router, stopRouter := api.SetupRouter(&api.RouterConfig{
		DB:           db,
		Logger:       logger,
		HMACSecret:   config.HMACSecret,
		InstanceID:   config.InstanceID,
		AllowOrigins: parseCORSOrigins(config.AllowOrigins),
		RateLimit:    limits,
	})
	defer stopRouter()

	srv := &http.Server{
		Addr:              config.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", config.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", config.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

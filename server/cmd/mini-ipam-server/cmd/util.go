// Package cmd provides the maintenance subcommands of mini-ipam-server.
package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/dobriak/mini-ipam/server/internal/database"
	"github.com/dobriak/mini-ipam/server/internal/logging"
)

// stdout receives command reports. Tests replace it.
var stdout io.Writer = os.Stdout

const utilUsage = `util command requires a subcommand

Available subcommands:
  compact-db          Compact and optimize database
  verify-collections  Re-validate stored collections and node assignments
  create-token        Create an API token for write access
  verify-token        Check a token against the stored hashes
  revoke-token        Delete an API token by name`

// OpenDatabase opens the SQLite database at path and brings its schema up to date.
func OpenDatabase(ctx context.Context, path string, logger *zap.Logger) (*sql.DB, error) {
	db, err := database.Open(ctx, path, database.Options{MaxOpenConns: 1}, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// ExecuteUtil runs a utility command with the given arguments.
func ExecuteUtil(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(utilUsage)
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "compact-db":
		return ExecuteCompactDB(subArgs)
	case "verify-collections":
		return ExecuteVerifyCollections(subArgs)
	case "create-token":
		return ExecuteCreateToken(subArgs)
	case "verify-token":
		return ExecuteVerifyToken(subArgs)
	case "revoke-token":
		return ExecuteRevokeToken(subArgs)
	default:
		return fmt.Errorf("unknown util subcommand: %s", subcommand)
	}
}

// newUtilLogger logs to stderr so reports on stdout stay clean.
func newUtilLogger(verbose bool) (*zap.Logger, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logging.NewLogger(logging.Config{
		Level:            level,
		Format:           logging.FormatConsole,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	})
}

// getEnv retrieves an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package cmd

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/zap"
)

// ExecuteCompactDB compacts the SQLite database to reclaim space.
func ExecuteCompactDB(args []string) error {
	fs := flag.NewFlagSet("compact-db", flag.ContinueOnError)
	dbPath := fs.String("db", getEnv("MINI_IPAM_DB_PATH", "./ipam.db"), "Path to SQLite database")
	analyze := fs.Bool("analyze", true, "Run ANALYZE after VACUUM")
	verbose := fs.Bool("verbose", false, "Enable verbose output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := newUtilLogger(*verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	db, err := OpenDatabase(ctx, *dbPath, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("compacting database", zap.String("path", *dbPath))

	var pageCount, pageSize int64
	if err := db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return fmt.Errorf("failed to get page count: %w", err)
	}
	if err := db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return fmt.Errorf("failed to get page size: %w", err)
	}
	sizeBefore := pageCount * pageSize
	fmt.Fprintf(stdout, "Database size before: %s (%d pages x %d bytes)\n", humanBytes(sizeBefore), pageCount, pageSize)

	if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("VACUUM failed: %w", err)
	}
	if err := db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return fmt.Errorf("failed to get page count: %w", err)
	}
	sizeAfter := pageCount * pageSize

	fmt.Fprintf(stdout, "Database size after:  %s (%d pages x %d bytes)\n", humanBytes(sizeAfter), pageCount, pageSize)
	fmt.Fprintf(stdout, "Space reclaimed:      %s\n", humanBytes(sizeBefore-sizeAfter))

	logger.Info("VACUUM completed",
		zap.Int64("size_before", sizeBefore),
		zap.Int64("size_after", sizeAfter),
	)

	if *analyze {
		if _, err := db.ExecContext(ctx, "ANALYZE"); err != nil {
			return fmt.Errorf("ANALYZE failed: %w", err)
		}
		fmt.Fprintln(stdout, "ANALYZE completed")
	}

	fmt.Fprintln(stdout, "\nTable Statistics:")
	for _, table := range []string{"collections", "nodes", "api_tokens", "schema_migrations"} {
		var count int64
		if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			logger.Warn("failed to count table rows", zap.String("table", table), zap.Error(err))
			continue
		}
		fmt.Fprintf(stdout, "  %-20s %d rows\n", table+":", count)
	}

	fmt.Fprintln(stdout, "\nDatabase compaction completed")
	return nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

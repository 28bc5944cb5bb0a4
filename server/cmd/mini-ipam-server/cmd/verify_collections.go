package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dobriak/mini-ipam/server/internal/service"
)

// ExecuteVerifyCollections re-validates stored collections and node
// assignments. It returns an error when problems are found so scripts can
// rely on the exit status.
func ExecuteVerifyCollections(args []string) error {
	fs := flag.NewFlagSet("verify-collections", flag.ContinueOnError)
	dbPath := fs.String("db", getEnv("MINI_IPAM_DB_PATH", "./ipam.db"), "Path to SQLite database")
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

	report, err := service.Audit(ctx, db)
	if err != nil {
		return err
	}

	printAudit(stdout, report)
	if !report.Clean() {
		return fmt.Errorf("verification found problems")
	}
	return nil
}

func printAudit(w io.Writer, r *service.AuditReport) {
	fmt.Fprintf(w, "Checked %d collection(s) and %d node(s)\n", r.Collections, r.Nodes)

	for _, c := range r.Unparseable {
		fmt.Fprintf(w, "  INVALID    collection %d %q: cannot parse %q\n", c.ID, c.Name, c.CIDR)
	}
	for _, c := range r.NotPrivate {
		fmt.Fprintf(w, "  PUBLIC     collection %d %q: %s is outside RFC 1918\n", c.ID, c.Name, c.CIDR)
	}
	for _, p := range r.Overlaps {
		fmt.Fprintf(w, "  OVERLAP    collection %d (%s) and %d (%s)\n", p.A.ID, p.A.CIDR, p.B.ID, p.B.CIDR)
	}
	for _, n := range r.StrayNodes {
		fmt.Fprintf(w, "  STRAY      node %d %s is outside collection %d\n", n.ID, n.IPAddress, *n.CollectionID)
	}
	for _, n := range r.DanglingNodes {
		fmt.Fprintf(w, "  DANGLING   node %d %s refers to missing collection %d\n", n.ID, n.IPAddress, *n.CollectionID)
	}

	fmt.Fprintln(w, "\nPrivate space coverage:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  RANGE\tCOVERED\tSIZE\tUSED")
	for _, cov := range r.Coverage {
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%.4f%%\n", cov.Region, cov.Covered, cov.Size, 100*float64(cov.Covered)/float64(cov.Size))
	}
	tw.Flush()

	if r.Clean() {
		fmt.Fprintln(w, "\nAll collections and nodes are consistent")
	}
}

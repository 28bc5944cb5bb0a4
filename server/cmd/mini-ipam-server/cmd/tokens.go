package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/pkg/token"
	"github.com/dobriak/mini-ipam/server/internal/service"
)

type tokenFlags struct {
	fs      *flag.FlagSet
	dbPath  *string
	secret  *string
	verbose *bool
}

func newTokenFlags(name string) *tokenFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &tokenFlags{
		fs:      fs,
		dbPath:  fs.String("db", getEnv("MINI_IPAM_DB_PATH", "./ipam.db"), "Path to SQLite database"),
		secret:  fs.String("secret", getEnv("MINI_IPAM_HMAC_SECRET", ""), "HMAC secret the server runs with"),
		verbose: fs.Bool("verbose", false, "Enable verbose output"),
	}
}

func (f *tokenFlags) open(ctx context.Context) (*service.TokenService, func(), error) {
	if *f.secret == "" {
		return nil, nil, fmt.Errorf("--secret or MINI_IPAM_HMAC_SECRET is required")
	}
	logger, err := newUtilLogger(*f.verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	db, err := OpenDatabase(ctx, *f.dbPath, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		db.Close()
		_ = logger.Sync()
	}
	return service.NewTokenService(db, logger, *f.secret), cleanup, nil
}

// ExecuteCreateToken creates a named API token and prints it once.
func ExecuteCreateToken(args []string) error {
	f := newTokenFlags("create-token")
	name := f.fs.String("name", "", "Token name (required)")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	ctx := context.Background()
	tokens, cleanup, err := f.open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	plain, created, err := tokens.Create(ctx, *name)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Created token %q (id %d, fingerprint %s)\n", created.Name, created.ID, token.Fingerprint(created.TokenHash))
	fmt.Fprintf(stdout, "\n  %s\n\nStore it now; it cannot be shown again.\n", plain)
	return nil
}

// ExecuteVerifyToken checks whether a token matches a stored hash.
func ExecuteVerifyToken(args []string) error {
	f := newTokenFlags("verify-token")
	provided := f.fs.String("token", "", "Token to verify (required)")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if *provided == "" {
		return fmt.Errorf("--token is required")
	}

	ctx := context.Background()
	tokens, cleanup, err := f.open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	tok, err := tokens.Verify(ctx, *provided)
	if errors.Is(err, models.ErrInvalidToken) {
		fmt.Fprintln(stdout, "Token verification FAILED: no stored token matches")
		return fmt.Errorf("token verification failed")
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Token verification SUCCESSFUL: %q (id %d)\n", tok.Name, tok.ID)
	if *f.verbose {
		fmt.Fprintf(stdout, "  Created:   %s\n", tok.CreatedAt.Format("2006-01-02 15:04:05"))
		if tok.LastUsedAt != nil {
			fmt.Fprintf(stdout, "  Last used: %s\n", tok.LastUsedAt.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

// ExecuteRevokeToken deletes a named API token.
func ExecuteRevokeToken(args []string) error {
	f := newTokenFlags("revoke-token")
	name := f.fs.String("name", "", "Token name (required)")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	ctx := context.Background()
	tokens, cleanup, err := f.open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := tokens.Revoke(ctx, *name); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Revoked token %q\n", *name)
	return nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/pkg/token"
	"github.com/dobriak/mini-ipam/server/internal/logging"
	"github.com/dobriak/mini-ipam/server/internal/metrics"
)

// TokenService manages API tokens. Tokens are stored as HMAC hashes keyed by
// the server secret.
type TokenService struct {
	db     *sql.DB
	logger *zap.Logger
	secret string
}

// NewTokenService creates a TokenService.
func NewTokenService(db *sql.DB, logger *zap.Logger, secret string) *TokenService {
	return &TokenService{
		db:     db,
		logger: logger.With(logging.Component("tokens")),
		secret: secret,
	}
}

// Create generates a token called name and returns the plaintext alongside
// the stored record.
func (s *TokenService) Create(ctx context.Context, name string) (string, *models.APIToken, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, fmt.Errorf("%w: token name required", models.ErrInvalidRequest)
	}

	plain, err := token.Generate()
	if err != nil {
		return "", nil, err
	}
	hash := token.Hash(plain, s.secret)
	now := time.Now().UTC().Truncate(time.Second)

	start := time.Now()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO api_tokens (name, token_hash, created_at) VALUES (?, ?, ?)`,
		name, hash, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			metrics.ObserveQuery("tokens.create", start, nil)
			return "", nil, models.ErrTokenExists
		}
		metrics.ObserveQuery("tokens.create", start, err)
		return "", nil, fmt.Errorf("failed to insert token: %w", err)
	}
	metrics.ObserveQuery("tokens.create", start, nil)

	id, err := result.LastInsertId()
	if err != nil {
		return "", nil, fmt.Errorf("failed to read token id: %w", err)
	}

	s.logger.Info("api token created", zap.String("name", name), zap.String("fingerprint", token.Fingerprint(hash)))
	return plain, &models.APIToken{ID: id, Name: name, TokenHash: hash, CreatedAt: now}, nil
}

// Authenticate returns the token matching provided and records its use.
// Unknown or malformed tokens give models.ErrInvalidToken.
func (s *TokenService) Authenticate(ctx context.Context, provided string) (*models.APIToken, error) {
	if err := token.ValidateFormat(provided); err != nil {
		return nil, models.ErrInvalidToken
	}

	t, err := s.getByHash(ctx, token.Hash(provided, s.secret))
	if err != nil {
		return nil, err
	}
	if !token.Validate(provided, s.secret, t.TokenHash) {
		return nil, models.ErrInvalidToken
	}

	now := time.Now().UTC().Truncate(time.Second)
	if _, err := s.db.ExecContext(ctx, `UPDATE api_tokens SET last_used_at = ? WHERE id = ?`, now, t.ID); err != nil {
		// Auth already succeeded; a missed timestamp is not worth failing the request.
		s.logger.Warn("failed to record token use", zap.Int64("token_id", t.ID), zap.Error(err))
	} else {
		t.LastUsedAt = &now
	}
	return t, nil
}

// Verify reports whether provided is a stored token without recording use.
func (s *TokenService) Verify(ctx context.Context, provided string) (*models.APIToken, error) {
	if err := token.ValidateFormat(provided); err != nil {
		return nil, models.ErrInvalidToken
	}
	return s.getByHash(ctx, token.Hash(provided, s.secret))
}

// List returns all tokens ordered by id.
func (s *TokenService) List(ctx context.Context) ([]models.APIToken, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, token_hash, created_at, last_used_at FROM api_tokens ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	tokens := []models.APIToken{}
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}

// Revoke deletes the token called name.
func (s *TokenService) Revoke(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM api_tokens WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return models.ErrTokenNotFound
	}
	s.logger.Info("api token revoked", zap.String("name", name))
	return nil
}

func (s *TokenService) getByHash(ctx context.Context, hash string) (*models.APIToken, error) {
	t, err := scanToken(s.db.QueryRowContext(ctx,
		`SELECT id, name, token_hash, created_at, last_used_at FROM api_tokens WHERE token_hash = ? LIMIT 1`, hash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	return t, nil
}

func scanToken(row rowScanner) (*models.APIToken, error) {
	var (
		t        models.APIToken
		lastUsed sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.Name, &t.TokenHash, &t.CreatedAt, &lastUsed); err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		t.LastUsedAt = &lastUsed.Time
	}
	return &t, nil
}

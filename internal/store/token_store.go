package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TokenStore keeps credential tokens in sqlite so logins survive a restart.
type TokenStore struct {
	db *sql.DB
}

func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db}
}

func (s *TokenStore) Get(ctx context.Context, key string) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `
		SELECT token FROM tokens WHERE key = ?
	`, key).Scan(&token)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return token, nil
}

func (s *TokenStore) Set(ctx context.Context, key, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tokens (key, token, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at
	`, key, token)
	if err != nil {
		return fmt.Errorf("failed to set token: %w", err)
	}
	return nil
}

func (s *TokenStore) Clear(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// DeleteBefore removes tokens last set before cutoff.
func (s *TokenStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE updated_at < ?`,
		cutoff.UTC().Format(time.DateTime))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted tokens: %w", err)
	}
	return n, nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrKeyNotFound is returned when an API key has no matching account.
var ErrKeyNotFound = errors.New("api key not found")

// APIKeyStore resolves API keys to account identifiers.
type APIKeyStore struct {
	db *sql.DB
}

// LookupAccount returns the account id owning the given API key.
// Returns ErrKeyNotFound for unknown keys.
func (s *APIKeyStore) LookupAccount(ctx context.Context, key string) (string, error) {
	var accountID string
	err := s.db.QueryRowContext(ctx,
		"SELECT account_id FROM api_keys WHERE key = ?", key).Scan(&accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("looking up api key: %w", err)
	}
	return accountID, nil
}

// SaveKey stores an API key for an account, replacing the owning account if
// the key already exists. Used to seed the bootstrap key on startup.
func (s *APIKeyStore) SaveKey(ctx context.Context, key, accountID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_keys (key, account_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET account_id = excluded.account_id
	`, key, accountID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving api key: %w", err)
	}
	return nil
}

// DeleteKey revokes an API key.
func (s *APIKeyStore) DeleteKey(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM api_keys WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("deleting api key: %w", err)
	}
	return nil
}

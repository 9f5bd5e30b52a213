package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/vectordock/vectordock/storage"
)

// Authenticator verifies a caller credential and resolves the owning account.
type Authenticator interface {
	// Verify returns the account id for a valid API key, or ErrUnauthorized.
	Verify(ctx context.Context, apiKey string) (string, error)
}

// KeyStore is the storage surface the authenticator needs.
type KeyStore interface {
	LookupAccount(ctx context.Context, key string) (string, error)
}

// apiKeyAuthenticator checks keys against the api_keys table.
type apiKeyAuthenticator struct {
	keys KeyStore
}

// NewAPIKeyAuthenticator creates an Authenticator backed by the key store.
func NewAPIKeyAuthenticator(keys KeyStore) Authenticator {
	return &apiKeyAuthenticator{keys: keys}
}

// Verify implements Authenticator.
func (a *apiKeyAuthenticator) Verify(ctx context.Context, apiKey string) (string, error) {
	if apiKey == "" {
		return "", ErrUnauthorized
	}

	accountID, err := a.keys.LookupAccount(ctx, apiKey)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return accountID, nil
}

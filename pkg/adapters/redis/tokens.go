package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// TokenStore implements ports.TokenStore with one expiring key per token.
type TokenStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// NewTokenStore creates a token store from an existing client.
func NewTokenStore(client *backend.Client, opts ...Option) *TokenStore {
	o := newOptions(opts)
	return &TokenStore{client: client, prefix: o.prefix, ttl: o.ttl}
}

func (s *TokenStore) key(token string) string {
	return s.prefix + "token:" + token
}

// Put stores the token. A zero ttl falls back to the store default (0 = no expiration).
func (s *TokenStore) Put(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	if ttl == 0 {
		ttl = s.ttl
	}
	if err := s.client.Set(ctx, s.key(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Get resolves a token to its user ID.
func (s *TokenStore) Get(ctx context.Context, token string) (int64, error) {
	id, err := s.client.Get(ctx, s.key(token)).Int64()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("failed to get token: %w", err)
	}
	return id, nil
}

// Delete removes the token.
func (s *TokenStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

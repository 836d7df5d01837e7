package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
)

type tokenEntry struct {
	userID  int64
	expires time.Time
}

// TokenStore implements ports.TokenStore in memory.
// Expired tokens are removed lazily on read.
type TokenStore struct {
	mu     sync.Mutex
	now    func() time.Time
	tokens map[string]tokenEntry
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		now:    time.Now,
		tokens: make(map[string]tokenEntry),
	}
}

// Put stores the token. A zero ttl means no expiration.
func (s *TokenStore) Put(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := tokenEntry{userID: userID}
	if ttl > 0 {
		entry.expires = s.now().Add(ttl)
	}
	s.tokens[token] = entry
	return nil
}

// Get resolves a token to its user ID.
func (s *TokenStore) Get(ctx context.Context, token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tokens[token]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if !entry.expires.IsZero() && !s.now().Before(entry.expires) {
		delete(s.tokens, token)
		return 0, domain.ErrNotFound
	}
	return entry.userID, nil
}

// Delete removes the token.
func (s *TokenStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

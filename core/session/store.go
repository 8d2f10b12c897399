package session

import (
	"context"
	"sync"
)

// TokenKey is the fixed storage key of the persisted credential.
const TokenKey = "masomo_token"

// TokenStore persists the opaque bearer credential across process restarts.
// Implementations never inspect the token.
type TokenStore interface {
	Save(ctx context.Context, token string) error
	// Load returns found=false, with a nil error, when no token is stored.
	Load(ctx context.Context) (token string, found bool, err error)
	// Clear is a no-op when nothing is stored.
	Clear(ctx context.Context) error
}

// MemoryTokenStore keeps the credential in process memory.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
	found bool
}

var _ TokenStore = (*MemoryTokenStore)(nil)

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.found = token, true
	return nil
}

func (s *MemoryTokenStore) Load(_ context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.found, nil
}

func (s *MemoryTokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.found = "", false
	return nil
}

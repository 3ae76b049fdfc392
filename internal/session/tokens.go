// Package session tracks who is logged in to the console: the credential
// token kept for each browser, the admin identity recorded at login and the
// guard that keeps anonymous browsers out of the admin pages.
package session

import (
	"context"
	"sync"
	"time"
)

// TokenKey is the fixed key under which the credential token is stored.
const TokenKey = "adminToken"

// TokenStore persists credential tokens outside process memory. Get returns
// "" with a nil error when no token is stored under key.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, token string) error
	Clear(ctx context.Context, key string) error
	// DeleteBefore drops tokens stored before cutoff and returns how many
	// were dropped.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// KeyFor scopes TokenKey to one browser session.
func KeyFor(sid string) string {
	return TokenKey + ":" + sid
}

// MemoryTokenStore keeps tokens in a map. Tokens do not survive a restart.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]storedToken
	now    func() time.Time
}

type storedToken struct {
	token string
	setAt time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]storedToken), now: time.Now}
}

func (m *MemoryTokenStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens[key].token, nil
}

func (m *MemoryTokenStore) Set(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = storedToken{token: token, setAt: m.now()}
	return nil
}

func (m *MemoryTokenStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key, t := range m.tokens {
		if t.setAt.Before(cutoff) {
			delete(m.tokens, key)
			n++
		}
	}
	return n, nil
}

func (m *MemoryTokenStore) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, key)
	return nil
}

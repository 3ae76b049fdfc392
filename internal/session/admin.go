package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vbonduro/dikaadmin/internal/domain"
)

// AdminStore holds the identity of the admin logged in on each browser
// session. Identities live in memory only; a browser that still has a stored
// token after a restart passes the guard but has no identity until it logs in
// again.
type AdminStore struct {
	tokens TokenStore

	mu     sync.RWMutex
	admins map[string]domain.Admin
}

func NewAdminStore(tokens TokenStore) *AdminStore {
	return &AdminStore{tokens: tokens, admins: make(map[string]domain.Admin)}
}

func (s *AdminStore) SetAdmin(sid string, admin domain.Admin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[sid] = admin
}

func (s *AdminStore) Admin(sid string) (domain.Admin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.admins[sid]
	return a, ok
}

// Logout forgets the identity and clears the stored token for sid. The
// identity is dropped even when clearing the token fails.
func (s *AdminStore) Logout(ctx context.Context, sid string) error {
	s.mu.Lock()
	delete(s.admins, sid)
	s.mu.Unlock()

	if err := s.tokens.Clear(ctx, KeyFor(sid)); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// Evict forgets identities recorded before cutoff and returns how many were
// dropped.
func (s *AdminStore) Evict(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for sid, a := range s.admins {
		if a.LoginAt.Before(cutoff) {
			delete(s.admins, sid)
			n++
		}
	}
	return n
}

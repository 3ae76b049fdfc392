package session

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/vbonduro/dikaadmin/internal/domain"
)

const (
	cookieName = "admin-session"
	sidField   = "sid"

	// MaxAge is how long a browser session cookie lives. A stored token or
	// identity older than this can no longer be reached by any browser.
	MaxAge = 7 * 24 * time.Hour
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Type    string
	Message string
}

func init() {
	gob.Register(Flash{})
}

// Manager ties a browser (identified by a signed cookie) to its stored token
// and admin identity.
type Manager struct {
	cookies sessions.Store
	tokens  TokenStore
	admins  *AdminStore
	logger  *slog.Logger
	now     func() time.Time
}

func NewManager(cookies sessions.Store, tokens TokenStore, admins *AdminStore, logger *slog.Logger) *Manager {
	return &Manager{
		cookies: cookies,
		tokens:  tokens,
		admins:  admins,
		logger:  logger,
		now:     time.Now,
	}
}

// NewCookieStore returns the cookie store used for browser sessions.
func NewCookieStore(key string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(key))
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.Path = "/"
	store.Options.MaxAge = int(MaxAge / time.Second)
	return store
}

func (m *Manager) cookie(r *http.Request) *sessions.Session {
	sess, err := m.cookies.Get(r, cookieName)
	if err != nil {
		// A cookie signed with an old key decodes to a fresh session.
		m.logger.Debug("discarding unreadable session cookie", "error", err)
	}
	return sess
}

// ID returns the browser session id, creating and saving one if the browser
// has none yet.
func (m *Manager) ID(w http.ResponseWriter, r *http.Request) (string, error) {
	sess := m.cookie(r)
	if sid, ok := sess.Values[sidField].(string); ok && sid != "" {
		return sid, nil
	}
	sid := uuid.NewString()
	sess.Values[sidField] = sid
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return sid, nil
}

// existingID returns the browser session id without creating one.
func (m *Manager) existingID(r *http.Request) string {
	sid, _ := m.cookie(r).Values[sidField].(string)
	return sid
}

// Token returns the stored token for the browser, or "".
func (m *Manager) Token(ctx context.Context, r *http.Request) (string, error) {
	sid := m.existingID(r)
	if sid == "" {
		return "", nil
	}
	return m.tokens.Get(ctx, KeyFor(sid))
}

// Login stores token for the browser and records the admin identity.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, token, username string) error {
	sid, err := m.ID(w, r)
	if err != nil {
		return err
	}
	if err := m.tokens.Set(r.Context(), KeyFor(sid), token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	m.admins.SetAdmin(sid, IdentityFromToken(token, username, m.now()))
	return nil
}

// Logout clears the token and identity of the browser.
func (m *Manager) Logout(r *http.Request) error {
	sid := m.existingID(r)
	if sid == "" {
		return nil
	}
	return m.admins.Logout(r.Context(), sid)
}

// Prune drops tokens and identities whose browser session cookie has
// expired.
func (m *Manager) Prune(ctx context.Context) error {
	cutoff := m.now().Add(-MaxAge)
	admins := m.admins.Evict(cutoff)
	tokens, err := m.tokens.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune tokens: %w", err)
	}
	if admins > 0 || tokens > 0 {
		m.logger.Info("pruned expired sessions", "identities", admins, "tokens", tokens)
	}
	return nil
}

// Admin returns the identity recorded at login for this browser.
func (m *Manager) Admin(r *http.Request) (domain.Admin, bool) {
	return m.admins.Admin(m.existingID(r))
}

// Actor names the admin of this browser for the activity log, or "" when the
// identity is unknown.
func (m *Manager) Actor(r *http.Request) string {
	a, ok := m.Admin(r)
	if !ok {
		return ""
	}
	return a.Actor()
}

func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, typ, msg string) {
	sess := m.cookie(r)
	sess.AddFlash(Flash{Type: typ, Message: msg})
	if err := sess.Save(r, w); err != nil {
		m.logger.Error("failed to save flash", "error", err)
	}
}

// Flashes pops the pending flash messages of the browser.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	sess := m.cookie(r)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		m.logger.Error("failed to save session after reading flashes", "error", err)
	}
	out := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if fm, ok := f.(Flash); ok {
			out = append(out, fm)
		}
	}
	return out
}

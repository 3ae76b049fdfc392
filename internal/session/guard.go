package session

import (
	"context"
	"net/http"
)

type tokenCtxKey struct{}

// TokenFromContext returns the token the guard found for the request.
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenCtxKey{}).(string)
	return t
}

// WithToken attaches token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

// Guard serves next only when a token is stored for the browser. Anyone else
// is sent to loginPath. HTMX requests get an HX-Redirect header instead of a
// 303 so the whole page navigates.
func (m *Manager) Guard(loginPath string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := m.Token(r.Context(), r)
		if err != nil {
			m.logger.Error("failed to read stored token", "path", r.URL.Path, "error", err)
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}
		if token == "" {
			m.logger.Debug("no stored token, redirecting to login", "path", r.URL.Path)
			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", loginPath)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
	})
}

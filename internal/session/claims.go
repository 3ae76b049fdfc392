package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vbonduro/dikaadmin/internal/domain"
)

// IdentityFromToken builds the admin identity recorded at login. When the
// token is a JWT its subject (or id claim) and expiry are picked up; the
// signature is not checked, the API does that on every request.
func IdentityFromToken(token, username string, now time.Time) domain.Admin {
	admin := domain.Admin{Username: username, LoginAt: now}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return admin
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		admin.Subject = sub
	} else if id, ok := claims["id"].(string); ok {
		admin.Subject = id
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		admin.ExpiresAt = exp.Time
	}
	return admin
}

// Package auth reads the claims of backend-issued access tokens.
//
// The backend owns the signing key, so tokens are parsed without signature
// verification; the result only decides whether a stored token is worth
// presenting to the backend at all.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned by Inspect for tokens that are not three-part JWTs.
var ErrNotJWT = errors.New("auth: token is not a JWT")

// Claims holds the parts of the payload the client cares about.
type Claims struct {
	Username string `json:"username,omitempty"`
	Role     string `json:"rol,omitempty"`
	jwt.RegisteredClaims
}

// Inspect decodes token without verifying it.
func Inspect(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrNotJWT
		}
		return nil, fmt.Errorf("auth: inspect: %w", err)
	}
	return claims, nil
}

// Expired reports whether token is a JWT whose exp lies before now. Opaque
// tokens and JWTs without exp are never expired client-side.
func Expired(token string, now time.Time) bool {
	c, err := Inspect(token)
	if err != nil || c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// Subject returns the sub claim, falling back to username.
func (c *Claims) Subject() string {
	if c.RegisteredClaims.Subject != "" {
		return c.RegisteredClaims.Subject
	}
	return c.Username
}

package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/muestras/pkg/auth"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-only"))
	require.NoError(t, err)
	return tok
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := sign(t, jwt.MapClaims{"sub": "ana", "rol": "admin", "exp": exp.Unix()})

	c, err := auth.Inspect(tok)
	require.NoError(t, err)
	assert.Equal(t, "ana", c.Subject())
	assert.Equal(t, "admin", c.Role)
	assert.True(t, exp.Equal(c.ExpiresAt.Time))
}

func TestInspect_Opaque(t *testing.T) {
	_, err := auth.Inspect("opaque-session-token")
	assert.ErrorIs(t, err, auth.ErrNotJWT)
}

func TestExpired(t *testing.T) {
	now := time.Now()

	past := sign(t, jwt.MapClaims{"sub": "a", "exp": now.Add(-time.Minute).Unix()})
	future := sign(t, jwt.MapClaims{"sub": "a", "exp": now.Add(time.Minute).Unix()})
	noExp := sign(t, jwt.MapClaims{"sub": "a"})

	assert.True(t, auth.Expired(past, now))
	assert.False(t, auth.Expired(future, now))
	assert.False(t, auth.Expired(noExp, now))
	assert.False(t, auth.Expired("opaque", now))
}

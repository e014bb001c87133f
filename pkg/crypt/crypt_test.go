package crypt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/muestras/pkg/crypt"
)

func TestSealer_EncryptDecrypt(t *testing.T) {
	s, err := crypt.NewSealer("secret", crypt.DefaultPurpose)
	require.NoError(t, err)

	enc, err := s.Encrypt("eyJhbGciOi")
	require.NoError(t, err)
	assert.NotContains(t, enc, "eyJhbGciOi")

	plain, err := s.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOi", plain)
}

func TestSealer_PurposeSeparatesKeys(t *testing.T) {
	a, err := crypt.NewSealer("secret", "a")
	require.NoError(t, err)
	b, err := crypt.NewSealer("secret", "b")
	require.NoError(t, err)

	enc, err := a.Encrypt("x")
	require.NoError(t, err)
	_, err = b.Decrypt(enc)
	assert.ErrorIs(t, err, crypt.ErrDecrypt)
}

func TestSealer_RejectsGarbage(t *testing.T) {
	s, err := crypt.NewSealer("secret", crypt.DefaultPurpose)
	require.NoError(t, err)

	_, err = s.Decrypt("not base64!")
	assert.ErrorIs(t, err, crypt.ErrDecrypt)
	_, err = s.Decrypt("AAAA")
	assert.ErrorIs(t, err, crypt.ErrDecrypt)
}

func TestNewSealer_EmptySecret(t *testing.T) {
	_, err := crypt.NewSealer("", crypt.DefaultPurpose)
	assert.Error(t, err)
}

func TestPackageHelpers_UseAppKey(t *testing.T) {
	enc, err := crypt.EncryptJSON(map[string]string{"token": "t"})
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, crypt.DecryptJSON(enc, &out))
	assert.Equal(t, "t", out["token"])
}

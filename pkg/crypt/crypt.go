// Package crypt provides AES-GCM authenticated encryption helpers.
//
// All ciphertext is base64url-encoded and includes the random nonce prefix,
// so a single string can be stored in a file, a redis value or a cookie.
//
// Usage:
//
//	enc, err := crypt.Encrypt("hello world")
//	plain, err := crypt.Decrypt(enc)
//
//	// Explicit key, e.g. in tests
//	s, _ := crypt.NewSealer("secret", "muestras/token")
//	enc, _ = s.Encrypt("jwt")
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/shashiranjanraj/muestras/config"
)

// ErrDecrypt is returned when decryption or authentication fails.
var ErrDecrypt = errors.New("crypt: decryption failed")

// DefaultPurpose separates keys derived from the same APP_KEY.
const DefaultPurpose = "muestras/token"

// Sealer encrypts with one derived AES-256 key.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a 32-byte key from secret with HKDF-SHA256, using
// purpose as the info string.
func NewSealer(secret, purpose string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.New("crypt: APP_KEY not configured")
	}

	k := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose)), k); err != nil {
		return nil, fmt.Errorf("crypt: derive key: %w", err)
	}

	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("crypt: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypt: new GCM: %w", err)
	}
	return &Sealer{aead: gcm}, nil
}

func defaultSealer() (*Sealer, error) {
	return NewSealer(config.AppKey(), DefaultPurpose)
}

// Encrypt encrypts plaintext and returns base64url(nonce || ciphertext || tag).
func (s *Sealer) Encrypt(plaintext string) (string, error) {
	return s.EncryptBytes([]byte(plaintext))
}

// EncryptBytes encrypts raw bytes and returns a base64url string.
func (s *Sealer) EncryptBytes(data []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("crypt: nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, data, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt decrypts a string produced by Encrypt.
func (s *Sealer) Decrypt(encoded string) (string, error) {
	b, err := s.DecryptBytes(encoded)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecryptBytes decrypts a base64url string and returns raw bytes.
func (s *Sealer) DecryptBytes(encoded string) ([]byte, error) {
	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrDecrypt
	}

	n := s.aead.NonceSize()
	if len(data) < n {
		return nil, ErrDecrypt
	}
	plain, err := s.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}

// Encrypt encrypts plaintext with the key derived from APP_KEY.
func Encrypt(plaintext string) (string, error) {
	s, err := defaultSealer()
	if err != nil {
		return "", err
	}
	return s.Encrypt(plaintext)
}

// Decrypt decrypts a string produced by Encrypt.
func Decrypt(encoded string) (string, error) {
	s, err := defaultSealer()
	if err != nil {
		return "", err
	}
	return s.Decrypt(encoded)
}

// EncryptJSON marshals v to JSON then encrypts it.
func EncryptJSON(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("crypt: marshal: %w", err)
	}
	s, err := defaultSealer()
	if err != nil {
		return "", err
	}
	return s.EncryptBytes(raw)
}

// DecryptJSON decrypts encoded and unmarshals the result into dest.
func DecryptJSON(encoded string, dest interface{}) error {
	s, err := defaultSealer()
	if err != nil {
		return err
	}
	raw, err := s.DecryptBytes(encoded)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("crypt: unmarshal: %w", err)
	}
	return nil
}

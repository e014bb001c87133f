package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shashiranjanraj/muestras/pkg/crypt"
	"github.com/shashiranjanraj/muestras/pkg/logger"
)

// File keeps the token encrypted in a 0600 file.
type File struct {
	mu     sync.Mutex
	path   string
	sealer *crypt.Sealer
}

func NewFile(path string, sealer *crypt.Sealer) *File {
	return &File{path: path, sealer: sealer}
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Load returns ErrNoToken for a missing file. A file that no longer decrypts
// (e.g. APP_KEY rotated) is treated as empty and removed.
func (f *File) Load(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("tokenstore: read %s: %w", f.path, err)
	}

	tok, err := f.sealer.Decrypt(strings.TrimSpace(string(raw)))
	if err != nil {
		logger.WithCtx(ctx).Warn("tokenstore: discarding unreadable token file", "path", f.path, "error", err)
		_ = os.Remove(f.path)
		return "", ErrNoToken
	}
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

func (f *File) Save(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	enc, err := f.sealer.Encrypt(token)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("tokenstore: mkdir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(enc), 0o600); err != nil {
		return fmt.Errorf("tokenstore: write: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("tokenstore: rename: %w", err)
	}
	return nil
}

func (f *File) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("tokenstore: remove: %w", err)
	}
	return nil
}

// Package tokenstore persists the access token between runs.
//
//	store, err := tokenstore.Open(config.TokenStore(), "default")
//	tok, err := store.Load(ctx)
//	if errors.Is(err, tokenstore.ErrNoToken) { ... anonymous ... }
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/muestras/config"
	"github.com/shashiranjanraj/muestras/pkg/cache"
	"github.com/shashiranjanraj/muestras/pkg/crypt"
)

// ErrNoToken is returned by Load when nothing is stored.
var ErrNoToken = errors.New("tokenstore: no token stored")

// Store keeps at most one token.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Open builds the store named by driver. scope isolates tokens that share
// one backend, e.g. one per console session.
func Open(driver, scope string) (Store, error) {
	if !validScope(scope) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
	switch driver {
	case "file":
		sealer, err := crypt.NewSealer(config.AppKey(), crypt.DefaultPurpose)
		if err != nil {
			return nil, err
		}
		path := config.TokenFile()
		if scope != "" && scope != DefaultScope {
			path += "." + scope
		}
		return NewFile(path, sealer), nil
	case "redis":
		c := cache.Default()
		if c == nil {
			return nil, errors.New("tokenstore: redis driver selected but redis is not connected")
		}
		return NewRedis(c, scope, config.TokenTTL()), nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("tokenstore: unknown driver %q", driver)
	}
}

// ErrInvalidScope is returned for scopes that could escape the token
// directory or key space.
var ErrInvalidScope = errors.New("tokenstore: invalid scope")

// validScope allows letters, digits, '-' and '_' only.
func validScope(scope string) bool {
	for _, c := range scope {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// DefaultScope is the scope of the CLI's own token.
const DefaultScope = "token"

// ── memory ───────────────────────────────────────────────────────────────────

// Memory is a process-local Store.
type Memory struct {
	mu    sync.RWMutex
	token string
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Load(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return "", ErrNoToken
	}
	return m.token, nil
}

func (m *Memory) Save(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(context.Context) error {
	return m.Save(context.Background(), "")
}

// ── redis ────────────────────────────────────────────────────────────────────

// Redis stores the token under token:<scope> in the shared cache.
type Redis struct {
	c   *cache.Cache
	key string
	ttl time.Duration
}

func NewRedis(c *cache.Cache, scope string, ttl time.Duration) *Redis {
	if scope == "" {
		scope = DefaultScope
	}
	return &Redis{c: c, key: "token:" + scope, ttl: ttl}
}

func (r *Redis) Load(ctx context.Context) (string, error) {
	var tok string
	err := r.c.Get(ctx, r.key, &tok)
	if errors.Is(err, cache.ErrMiss) || (err == nil && tok == "") {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("tokenstore: redis load: %w", err)
	}
	return tok, nil
}

func (r *Redis) Save(ctx context.Context, token string) error {
	if err := r.c.Set(ctx, r.key, token, r.ttl); err != nil {
		return fmt.Errorf("tokenstore: redis save: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.c.Forget(ctx, r.key); err != nil {
		return fmt.Errorf("tokenstore: redis clear: %w", err)
	}
	return nil
}

package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Options configures the console session cookie.
type Options struct {
	CookieName string
	TTL        time.Duration
	HTTPOnly   bool
	Secure     bool
	SameSite   http.SameSite
	Path       string
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		CookieName: "muestras_session",
		TTL:        24 * time.Hour,
		HTTPOnly:   true,
		Secure:     false,
		SameSite:   http.SameSiteLaxMode,
		Path:       "/",
	}
}

// Factory builds the Session for a console cookie id. The id is meant to be
// used as the token store scope so a restarted server finds the token again.
type Factory func(id string) (*Session, error)

// Manager keeps one Session per console cookie.
type Manager struct {
	opts    Options
	factory Factory

	mu       sync.Mutex
	sessions map[string]*entry
	flight   singleflight.Group
}

type entry struct {
	sess     *Session
	lastSeen time.Time
}

// NewManager builds a manager that creates sessions through factory.
func NewManager(opts Options, factory Factory) *Manager {
	return &Manager{opts: opts, factory: factory, sessions: map[string]*entry{}}
}

type ctxKey struct{}
type idKey struct{}

const idBytes = 32

// newID generates a cryptographically random 32-byte hex session ID.
func newID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// validID reports whether id has the shape newID produces. Any other cookie
// value is replaced, so a client never chooses the id.
func validID(id string) bool {
	if len(id) != 2*idBytes {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Middleware loads (or creates and initialises) the session for every request
// and injects it into the request context. A new cookie is issued when the
// request carries none or one this manager could not have issued.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(m.opts.CookieName); err == nil && validID(c.Value) {
			id = c.Value
		} else {
			var err error
			if id, err = newID(); err != nil {
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     m.opts.CookieName,
				Value:    id,
				Path:     m.opts.Path,
				MaxAge:   int(m.opts.TTL.Seconds()),
				HttpOnly: m.opts.HTTPOnly,
				Secure:   m.opts.Secure,
				SameSite: m.opts.SameSite,
			})
		}

		sess, err := m.get(r.Context(), id)
		if err != nil {
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, sess)
		ctx = context.WithValue(ctx, idKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Manager) touch(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = time.Now()
	return e.sess, true
}

// get returns the session of id, building it at most once even when several
// first requests for id arrive together.
func (m *Manager) get(ctx context.Context, id string) (*Session, error) {
	if sess, ok := m.touch(id); ok {
		return sess, nil
	}
	v, err, _ := m.flight.Do(id, func() (any, error) {
		if sess, ok := m.touch(id); ok {
			return sess, nil
		}
		sess, err := m.factory(id)
		if err != nil {
			return nil, err
		}
		// Every waiter shares this Init.
		sess.Init(context.WithoutCancel(ctx))

		m.mu.Lock()
		m.sessions[id] = &entry{sess: sess, lastSeen: time.Now()}
		m.mu.Unlock()
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Sweep forgets sessions idle for longer than the cookie TTL. Their tokens
// stay in the token store.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.sessions {
		if now.Sub(e.lastSeen) > m.opts.TTL {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Has reports whether id is a live session.
func (m *Manager) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// FromCtx returns the session injected by Middleware, or nil.
func FromCtx(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// IDFromCtx returns the console cookie id injected by Middleware.
func IDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(idKey{}).(string)
	return id
}

// NewContext returns ctx carrying sess, for handlers tested without the
// middleware.
func NewContext(ctx context.Context, id string, sess *Session) context.Context {
	ctx = context.WithValue(ctx, ctxKey{}, sess)
	return context.WithValue(ctx, idKey{}, id)
}

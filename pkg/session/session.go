// Package session owns the authentication state of one client: the stored
// access token, the current user and the Loading/Authenticated/Anonymous
// lifecycle.
//
//	sess := session.New(store, client)
//	sess.Init(ctx)
//	if sess.State() == session.StateAnonymous {
//	    err = sess.Login(ctx, user, pass)
//	}
//
// A Session is an explicit object; nothing here is process-global.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/muestras/pkg/auth"
	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/logger"
	"github.com/shashiranjanraj/muestras/pkg/metrics"
	"github.com/shashiranjanraj/muestras/pkg/notify"
	"github.com/shashiranjanraj/muestras/pkg/tokenstore"
)

// ErrMissingCredentials is returned by Login before any network call when the
// username or password is empty.
var ErrMissingCredentials = errors.New("session: username and password are required")

// State is the authentication lifecycle.
type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return "unknown"
}

// Lifecycle events fired on the session's bus. The payload is the user
// (catalog.User) for login, and the previous user for logout and expired.
const (
	EventLogin   = "session.login"
	EventLogout  = "session.logout"
	EventExpired = "session.expired"
)

// Authenticator is the backend side of authentication. *catalog.Client
// satisfies it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (catalog.LoginResponse, error)
	Me(ctx context.Context, token string) (catalog.User, error)
}

// Session is safe for concurrent use.
type Session struct {
	store tokenstore.Store
	authn Authenticator
	bus   *notify.Bus
	now   func() time.Time

	mu    sync.RWMutex
	state State
	token string
	user  *catalog.User
}

// Option customises a Session.
type Option func(*Session)

// WithBus publishes lifecycle events on b instead of a private bus.
func WithBus(b *notify.Bus) Option {
	return func(s *Session) { s.bus = b }
}

// WithClock overrides the clock used to judge token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New returns a Session in StateLoading. Call Init to resolve it.
func New(store tokenstore.Store, authn Authenticator, opts ...Option) *Session {
	s := &Session{store: store, authn: authn, now: time.Now, state: StateLoading}
	for _, opt := range opts {
		opt(s)
	}
	if s.bus == nil {
		s.bus = notify.NewBus()
	}
	return s
}

// Init resolves the stored token into a user. Without a token, or with a JWT
// already past its exp, no backend call is made. Any probe failure clears the
// stored token silently.
func (s *Session) Init(ctx context.Context) State {
	log := logger.WithCtx(ctx)

	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	tok, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, tokenstore.ErrNoToken) {
			log.Debug("session: token store unreadable", "error", err)
		}
		return s.becomeAnonymous()
	}

	if auth.Expired(tok, s.now()) {
		log.Debug("session: stored token expired")
		s.clearStore(ctx)
		s.fire(EventExpired, nil)
		return s.becomeAnonymous()
	}

	user, err := s.authn.Me(ctx, tok)
	if err != nil {
		log.Debug("session: token rejected", "error", err)
		s.clearStore(ctx)
		return s.becomeAnonymous()
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.token = tok
	s.user = &user
	s.mu.Unlock()
	metrics.RecordSession(StateAuthenticated.String())
	return StateAuthenticated
}

// Login exchanges credentials for a token, persists it and authenticates.
// On failure the state is left as it was.
func (s *Session) Login(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrMissingCredentials
	}

	resp, err := s.authn.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, resp.AccessToken); err != nil {
		logger.WithCtx(ctx).Warn("session: could not persist token", "error", err)
	}

	user := resp.User
	s.mu.Lock()
	s.state = StateAuthenticated
	s.token = resp.AccessToken
	s.user = &user
	s.mu.Unlock()

	metrics.RecordSession(StateAuthenticated.String())
	s.fire(EventLogin, user)
	return nil
}

// Logout forgets the token locally. The backend is not contacted.
func (s *Session) Logout(ctx context.Context) error {
	err := s.store.Clear(ctx)

	s.mu.RLock()
	prev := s.user
	s.mu.RUnlock()

	s.becomeAnonymous()
	if prev != nil {
		s.fire(EventLogout, *prev)
	}
	return err
}

// Token implements catalog.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the authenticated user, or nil.
func (s *Session) User() *catalog.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAdmin reports whether the authenticated user holds the admin role.
func (s *Session) IsAdmin() bool {
	u := s.User()
	return u != nil && u.IsAdmin()
}

// Bus is where lifecycle events are fired.
func (s *Session) Bus() *notify.Bus { return s.bus }

func (s *Session) becomeAnonymous() State {
	s.mu.Lock()
	s.state = StateAnonymous
	s.token = ""
	s.user = nil
	s.mu.Unlock()
	metrics.RecordSession(StateAnonymous.String())
	return StateAnonymous
}

func (s *Session) clearStore(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		logger.WithCtx(ctx).Debug("session: clear token", "error", err)
	}
}

func (s *Session) fire(event string, payload interface{}) {
	s.bus.Fire(event, payload)
}

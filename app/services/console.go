// Package services holds the console's per-session state: one workspace per
// browser session with its own token, API client, pages and toast queue.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/muestras/config"
	"github.com/shashiranjanraj/muestras/pkg/cache"
	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/listview"
	"github.com/shashiranjanraj/muestras/pkg/logger"
	"github.com/shashiranjanraj/muestras/pkg/notify"
	"github.com/shashiranjanraj/muestras/pkg/pages"
	"github.com/shashiranjanraj/muestras/pkg/schedule"
	"github.com/shashiranjanraj/muestras/pkg/session"
	"github.com/shashiranjanraj/muestras/pkg/tokenstore"
	"github.com/shashiranjanraj/muestras/pkg/workerpool"
)

// Config describes how workspaces reach the backend.
type Config struct {
	BackendURL string
	Timeout    time.Duration
	// TokenDriver is passed to tokenstore.Open with the cookie id as scope.
	TokenDriver string
	// Cache, when set, queues toasts in redis.
	Cache    *cache.Cache
	ToastTTL time.Duration
	Debounce time.Duration
	// Uploads is shared by every workspace.
	Uploads *workerpool.Pool
}

// ConfigFromEnv reads Config from the config package.
func ConfigFromEnv() Config {
	return Config{
		BackendURL:  config.BackendURL(),
		Timeout:     config.HTTPTimeout(),
		TokenDriver: config.TokenStore(),
		Cache:       cache.Default(),
		ToastTTL:    time.Hour,
		Debounce:    config.SearchDebounce(),
	}
}

// Console owns every workspace.
type Console struct {
	cfg      Config
	sessions *session.Manager

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewConsole builds the registry and its session manager.
func NewConsole(cfg Config, opts session.Options) *Console {
	if cfg.TokenDriver == "" {
		cfg.TokenDriver = "memory"
	}
	c := &Console{cfg: cfg, workspaces: map[string]*Workspace{}}
	c.sessions = session.NewManager(opts, c.Open)
	return c
}

// Sessions is the cookie middleware owner.
func (c *Console) Sessions() *session.Manager { return c.sessions }

// Open is the session factory: it builds the workspace of a new cookie id.
// An id that already has a workspace keeps it and gets its session back.
func (c *Console) Open(id string) (*session.Session, error) {
	if ws, ok := c.Workspace(id); ok {
		return ws.sess, nil
	}
	store, err := tokenstore.Open(c.cfg.TokenDriver, id)
	if err != nil {
		return nil, fmt.Errorf("services: token store: %w", err)
	}

	bus := notify.NewBus()
	authn := catalog.New(c.cfg.BackendURL, nil, catalog.WithTimeout(c.cfg.Timeout))
	sess := session.New(store, authn, session.WithBus(bus))

	var sink ToastSink = NewMemoryToasts()
	if c.cfg.Cache != nil {
		sink = NewRedisToasts(c.cfg.Cache, id, c.cfg.ToastTTL)
	}
	bus.Listen(listener(sink))
	bus.Listen(notify.LogListener(logger.L.With("session", short(id))))

	ws := &Workspace{
		id:     id,
		cfg:    c.cfg,
		sess:   sess,
		bus:    bus,
		toasts: sink,
		client: catalog.New(c.cfg.BackendURL, sess, catalog.WithTimeout(c.cfg.Timeout)),
		pages:  map[catalog.Resource]*pages.Page{},
	}
	bus.On(session.EventLogout, func(interface{}) { ws.reset() })
	bus.On(session.EventExpired, func(interface{}) { ws.reset() })

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.workspaces[id]; ok {
		return prev.sess, nil
	}
	c.workspaces[id] = ws
	return sess, nil
}

// Workspace returns the workspace of a cookie id.
func (c *Console) Workspace(id string) (*Workspace, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ws, ok := c.workspaces[id]
	return ws, ok
}

// FromCtx returns the workspace of the session injected into ctx.
func (c *Console) FromCtx(ctx context.Context) (*Workspace, bool) {
	return c.Workspace(session.IDFromCtx(ctx))
}

// Sweep forgets idle sessions and closes their pages.
func (c *Console) Sweep(now time.Time) int {
	n := c.sessions.Sweep(now)
	if n == 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ws := range c.workspaces {
		if !c.sessions.Has(id) {
			ws.reset()
			delete(c.workspaces, id)
		}
	}
	return n
}

// Housekeeping registers the periodic session sweep on s.
func (c *Console) Housekeeping(s *schedule.Scheduler, every time.Duration) {
	s.Every(every, "sessions.sweep", func(context.Context) {
		if n := c.Sweep(time.Now()); n > 0 {
			logger.Info("console: idle sessions swept", "count", n)
		}
	})
}

// Workspace is the state of one signed-in browser.
type Workspace struct {
	id     string
	cfg    Config
	sess   *session.Session
	bus    *notify.Bus
	toasts ToastSink
	client *catalog.Client

	mu    sync.Mutex
	pages map[catalog.Resource]*pages.Page
}

func (w *Workspace) Session() *session.Session { return w.sess }
func (w *Workspace) Client() *catalog.Client   { return w.client }
func (w *Workspace) Notifier() notify.Notifier { return w.bus }
func (w *Workspace) Toasts() ToastSink         { return w.toasts }

// Page returns the page of r, building it on first use.
func (w *Workspace) Page(r catalog.Resource) (*pages.Page, error) {
	def, ok := pages.Lookup(r)
	if !ok {
		return nil, fmt.Errorf("services: no page for %q", r)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pages[r]; ok {
		return p, nil
	}
	p := pages.New(def, w.client, pages.Options{
		Notifier:  w.bus,
		Debouncer: listview.NewDebouncer(nil, w.cfg.Debounce),
		CurrentUser: func() catalog.User {
			if u := w.sess.User(); u != nil {
				return *u
			}
			return catalog.User{}
		},
		Uploads: w.cfg.Uploads,
	})
	w.pages[r] = p
	return p, nil
}

// reset drops every page; a new user starts from fresh lists.
func (w *Workspace) reset() {
	w.mu.Lock()
	old := w.pages
	w.pages = map[catalog.Resource]*pages.Page{}
	w.mu.Unlock()
	for _, p := range old {
		p.Close()
	}
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

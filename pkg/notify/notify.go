// Package notify carries user-facing notifications (toasts) and lifecycle
// events from the client state machines to whatever displays them.
//
//	bus := notify.NewBus()
//	rec := notify.NewRecorder()
//	bus.Listen(rec.Listen)
//	bus.Listen(notify.LogListener(logger.L))
//	bus.Error("could not save the new order")
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Level classifies a toast.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Toast is one transient notification.
type Toast struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier is what the state machines report to.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// Listener receives every toast published on a Bus.
type Listener func(Toast)

// Handler receives the payload of a named event.
type Handler func(payload interface{})

// Bus fans toasts and named events out to listeners, synchronously and in
// registration order.
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
	handlers  map[string][]Handler
	now       func() time.Time
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}, now: time.Now}
}

// Listen registers a toast listener.
func (b *Bus) Listen(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

func (b *Bus) publish(level Level, msg string) {
	t := Toast{Level: level, Message: msg, At: b.now()}

	b.mu.RLock()
	ls := make([]Listener, len(b.listeners))
	copy(ls, b.listeners)
	b.mu.RUnlock()

	for _, l := range ls {
		l(t)
	}
}

func (b *Bus) Success(msg string) { b.publish(LevelSuccess, msg) }
func (b *Bus) Error(msg string)   { b.publish(LevelError, msg) }
func (b *Bus) Info(msg string)    { b.publish(LevelInfo, msg) }

// On registers a handler for the named event.
func (b *Bus) On(event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], h)
}

// Fire dispatches an event synchronously to all handlers registered for it.
func (b *Bus) Fire(event string, payload interface{}) {
	b.mu.RLock()
	hs := make([]Handler, len(b.handlers[event]))
	copy(hs, b.handlers[event])
	b.mu.RUnlock()

	for _, h := range hs {
		h(payload)
	}
}

// Flush removes all listeners and handlers.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = nil
	b.handlers = map[string][]Handler{}
}

// Recorder keeps every toast it hears, for tests and for clients that poll.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func NewRecorder() *Recorder { return &Recorder{} }

// Listen is a Listener.
func (r *Recorder) Listen(t Toast) {
	r.mu.Lock()
	r.toasts = append(r.toasts, t)
	r.mu.Unlock()
}

// Toasts returns a copy of everything recorded so far.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Drain returns and forgets everything recorded so far.
func (r *Recorder) Drain() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.toasts
	r.toasts = nil
	if out == nil {
		out = []Toast{}
	}
	return out
}

// Messages returns the messages of the recorded toasts at level.
func (r *Recorder) Messages(level Level) []string {
	var out []string
	for _, t := range r.Toasts() {
		if t.Level == level {
			out = append(out, t.Message)
		}
	}
	return out
}

// LogListener writes each toast to l.
func LogListener(l *slog.Logger) Listener {
	return func(t Toast) {
		switch t.Level {
		case LevelError:
			l.Warn("notify", "level", string(t.Level), "message", t.Message)
		default:
			l.Info("notify", "level", string(t.Level), "message", t.Message)
		}
	}
}

// Discard is a Notifier that drops everything.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Success(string) {}
func (discard) Error(string)   {}
func (discard) Info(string)    {}

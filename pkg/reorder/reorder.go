// Package reorder keeps a drag-reorderable list in sync with the backend.
//
// A drag end updates the visible sequence synchronously and persists the new
// order in the background. When persisting fails the list is replaced with a
// freshly fetched snapshot; it is never merged or rolled back by hand.
//
//	l := reorder.NewList(reorder.Config[catalog.Item]{
//	    Resource: "brands",
//	    Persist:  func(ctx context.Context, p []catalog.ReorderItem) error { return c.Reorder(ctx, catalog.Brands, p) },
//	    Fetch:    func(ctx context.Context) ([]catalog.Item, error) { return c.List(ctx, catalog.Brands, catalog.Query{}) },
//	    Notifier: bus,
//	}, items)
//	l.BeginDrag("3")
//	l.EndDrag(ctx, &target)
package reorder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/logger"
	"github.com/shashiranjanraj/muestras/pkg/metrics"
	"github.com/shashiranjanraj/muestras/pkg/notify"
)

// Messages shown when the background work fails.
const (
	MsgSaveFailed   = "could not save the new order"
	MsgReloadFailed = "could not reload the list"
)

// Identified is anything with a stable id.
type Identified interface {
	ItemID() string
}

// Move returns a new slice with the element at from reinserted at to. The
// input is not modified. Out of range indexes return an unchanged copy.
func Move[T any](items []T, from, to int) []T {
	out := make([]T, len(items))
	copy(out, items)
	if from == to || from < 0 || to < 0 || from >= len(items) || to >= len(items) {
		return out
	}

	moved := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = moved
	return out
}

// Payload pairs every id with its zero-based position in items.
func Payload[T Identified](items []T) []catalog.ReorderItem {
	out := make([]catalog.ReorderItem, len(items))
	for i, it := range items {
		out[i] = catalog.ReorderItem{ID: it.ItemID(), Order: i}
	}
	return out
}

// ValidatePayload checks that payload covers exactly the ids of current, each
// once, with positions 0..N-1.
func ValidatePayload[T Identified](current []T, payload []catalog.ReorderItem) error {
	if len(payload) != len(current) {
		return fmt.Errorf("reorder: payload has %d entries for %d items", len(payload), len(current))
	}

	want := make(map[string]bool, len(current))
	for _, it := range current {
		want[it.ItemID()] = true
	}
	seenPos := make([]bool, len(payload))
	for _, p := range payload {
		if !want[p.ID] {
			return fmt.Errorf("reorder: unexpected or repeated id %q", p.ID)
		}
		delete(want, p.ID)
		if p.Order < 0 || p.Order >= len(payload) || seenPos[p.Order] {
			return fmt.Errorf("reorder: position %d out of sequence", p.Order)
		}
		seenPos[p.Order] = true
	}
	return nil
}

// State of a list instance. Reordered is transient and only reported through
// Result.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Result describes what a drag end did.
type Result struct {
	Reordered bool
	Payload   []catalog.ReorderItem
}

// Config wires a List to its backend.
type Config[T Identified] struct {
	// Resource labels metrics and logs.
	Resource string
	Persist  func(ctx context.Context, payload []catalog.ReorderItem) error
	Fetch    func(ctx context.Context) ([]T, error)
	Notifier notify.Notifier
	// OnChange, when set, is called with the new sequence after every
	// optimistic update and every resync.
	OnChange func([]T)
}

// List is one reorderable list instance. It is safe for concurrent use.
type List[T Identified] struct {
	cfg Config[T]

	mu       sync.Mutex
	items    []T
	state    State
	dragging string

	inflight sync.WaitGroup
}

// NewList starts an Idle list showing items.
func NewList[T Identified](cfg Config[T], items []T) *List[T] {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard
	}
	l := &List[T]{cfg: cfg}
	l.items = append([]T(nil), items...)
	return l
}

// Items returns a copy of the visible sequence.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.items...)
}

// State returns Idle or Dragging.
func (l *List[T]) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Replace swaps the visible sequence, e.g. after a search or a refresh.
func (l *List[T]) Replace(items []T) {
	l.mu.Lock()
	l.items = append([]T(nil), items...)
	l.mu.Unlock()
	l.changed(items)
}

// BeginDrag enters Dragging for id. Unknown ids and lists too short to
// reorder stay Idle.
func (l *List[T]) BeginDrag(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.items) < 2 || indexOf(l.items, id) < 0 {
		return false
	}
	l.state = Dragging
	l.dragging = id
	return true
}

// EndDrag drops the dragged item onto the position of targetID. A nil,
// unknown or identical target returns to Idle without touching the list.
// Otherwise the list is updated at once and persisted in the background.
func (l *List[T]) EndDrag(ctx context.Context, targetID *string) Result {
	l.mu.Lock()
	source := l.dragging
	l.state = Idle
	l.dragging = ""

	if targetID == nil || *targetID == source || source == "" {
		l.mu.Unlock()
		return Result{}
	}
	from := indexOf(l.items, source)
	to := indexOf(l.items, *targetID)
	if from < 0 || to < 0 {
		l.mu.Unlock()
		return Result{}
	}
	return l.apply(ctx, from, to)
}

// ErrOutOfRange is returned by MoveByPosition for positions outside the list.
var ErrOutOfRange = errors.New("reorder: position out of range")

// MoveByPosition is a drag from position from onto position to.
func (l *List[T]) MoveByPosition(ctx context.Context, from, to int) (Result, error) {
	l.mu.Lock()
	n := len(l.items)
	if from < 0 || from >= n || to < 0 || to >= n {
		l.mu.Unlock()
		return Result{}, fmt.Errorf("%w (have %d items)", ErrOutOfRange, n)
	}
	if from == to {
		l.mu.Unlock()
		return Result{}, nil
	}
	l.state = Idle
	l.dragging = ""
	return l.apply(ctx, from, to), nil
}

// apply runs with l.mu held and releases it.
func (l *List[T]) apply(ctx context.Context, from, to int) Result {
	next := Move(l.items, from, to)
	l.items = next
	payload := Payload(next)
	l.mu.Unlock()

	l.changed(next)

	l.inflight.Add(1)
	go l.persist(context.WithoutCancel(ctx), payload)

	return Result{Reordered: true, Payload: payload}
}

func (l *List[T]) persist(ctx context.Context, payload []catalog.ReorderItem) {
	defer l.inflight.Done()
	log := logger.WithCtx(ctx)

	err := l.cfg.Persist(ctx, payload)
	if err == nil {
		metrics.RecordReorder(l.cfg.Resource, "persisted")
		return
	}

	metrics.RecordReorder(l.cfg.Resource, "failed")
	log.Warn("reorder: persist failed, resyncing", "resource", l.cfg.Resource, "error", err)
	l.cfg.Notifier.Error(catalog.Message(err, MsgSaveFailed))

	l.resync(ctx)
}

// resync replaces the whole visible sequence with the backend's.
func (l *List[T]) resync(ctx context.Context) {
	if l.cfg.Fetch == nil {
		return
	}
	fresh, err := l.cfg.Fetch(ctx)
	if err != nil {
		metrics.RecordReorder(l.cfg.Resource, "resync_failed")
		logger.WithCtx(ctx).Warn("reorder: resync failed", "resource", l.cfg.Resource, "error", err)
		l.cfg.Notifier.Error(MsgReloadFailed)
		return
	}
	metrics.RecordReorder(l.cfg.Resource, "resynced")
	l.Replace(fresh)
}

// Wait blocks until every background persist (and resync) has finished.
func (l *List[T]) Wait() {
	l.inflight.Wait()
}

func (l *List[T]) changed(items []T) {
	if l.cfg.OnChange != nil {
		l.cfg.OnChange(append([]T(nil), items...))
	}
}

func indexOf[T Identified](items []T, id string) int {
	for i, it := range items {
		if it.ItemID() == id {
			return i
		}
	}
	return -1
}

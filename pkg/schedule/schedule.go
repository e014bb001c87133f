// Package schedule runs the console's periodic housekeeping.
//
//	s := schedule.New(nil)
//	s.Every(time.Minute, "sessions.sweep", func(ctx context.Context) { console.Sweep(time.Now()) })
//	go s.Run(ctx)
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/shashiranjanraj/muestras/pkg/logger"
)

// Resolution is how often the scheduler looks for due tasks.
const Resolution = time.Second

// Task is one unit of periodic work.
type Task func(ctx context.Context)

type entry struct {
	name     string
	interval time.Duration
	task     Task

	mu      sync.Mutex
	next    time.Time
	running bool
}

// Scheduler dispatches tasks at fixed intervals. A task never overlaps with
// its own previous run.
type Scheduler struct {
	clock clockwork.Clock

	mu      sync.Mutex
	entries []*entry
	wg      sync.WaitGroup
}

// New returns an empty scheduler on clock. A nil clock uses the real one.
func New(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{clock: clock}
}

// Every registers task to run each interval, first one interval from now.
func (s *Scheduler) Every(interval time.Duration, name string, task Task) {
	if interval < Resolution {
		interval = Resolution
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, &entry{
		name:     name,
		interval: interval,
		task:     task,
		next:     s.clock.Now().Add(interval),
	})
}

// List describes the registered tasks.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, fmt.Sprintf("%s  [every %s]", e.name, e.interval))
	}
	return out
}

// Run dispatches due tasks until ctx ends, then waits for running tasks.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(Resolution)
	defer ticker.Stop()
	defer s.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			now := s.clock.Now()
			s.mu.Lock()
			current := append([]*entry(nil), s.entries...)
			s.mu.Unlock()

			for _, e := range current {
				s.dispatch(ctx, e, now)
			}
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) {
	e.mu.Lock()
	if now.Before(e.next) {
		e.mu.Unlock()
		return
	}
	e.next = now.Add(e.interval)
	if e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping task", "task", e.name)
		return
	}
	e.running = true
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "task", e.name, "panic", r)
			}
		}()
		logger.Debug("schedule: running task", "task", e.name)
		e.task(ctx)
	}()
}

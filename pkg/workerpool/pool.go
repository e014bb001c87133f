// Package workerpool provides a bounded goroutine pool with backpressure.
//
// Uploads of several attachments run through a Pool so the number of
// concurrent multipart requests stays under UPLOAD_CONCURRENCY.
//
//	pool := workerpool.New(config.UploadConcurrency())
//	defer pool.Shutdown()
//
//	errs := pool.Run(ctx, tasks...)
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPoolFull is returned by Submit when all workers are busy and the task
// queue is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned by Submit after Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Pool is a bounded goroutine pool.
type Pool struct {
	tasks   chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	closeCh chan struct{}
}

// New creates a Pool with the given number of workers.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		tasks:   make(chan func(), size*2),
		closeCh: make(chan struct{}),
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// Submit enqueues task without blocking.
//   - Returns ErrPoolFull if the task queue is at capacity.
//   - Returns ErrPoolClosed if Shutdown has been called.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait blocks until a slot is available, the pool is closed or ctx is
// done.
func (p *Pool) SubmitWait(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.closeCh:
		return ErrPoolClosed
	case p.tasks <- task:
		return nil
	}
}

// Run executes every task on the pool and waits for all of them. The result
// has one entry per task, in order; nil means success. A task that panics
// reports the panic as its error.
func (p *Pool) Run(ctx context.Context, tasks ...func(context.Context) error) []error {
	errs := make([]error, len(tasks))
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		err := p.SubmitWait(ctx, func() {
			defer wg.Done()
			errs[i] = safeRun(ctx, task)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}

	wg.Wait()
	return errs
}

// Shutdown stops accepting new tasks, waits for in-flight tasks to complete
// and releases all worker goroutines. Safe to call multiple times.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.closeCh)
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

// worker drains the task channel until it is closed.
func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		_ = safeRun(context.Background(), func(context.Context) error {
			task()
			return nil
		})
	}
}

// safeRun executes task, turning a panic into an error so a bad task doesn't
// kill the worker goroutine.
func safeRun(ctx context.Context, task func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workerpool: task panicked: %v", r)
		}
	}()
	return task(ctx)
}

// Join combines the non-nil errors of a Run.
func Join(errs []error) error {
	return errors.Join(errs...)
}

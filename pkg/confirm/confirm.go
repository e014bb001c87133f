// Package confirm is the confirmation step every delete goes through.
//
//	d := confirm.New()
//	d.Open(item.ID, item.Name)
//	err := d.Confirm(ctx, func(ctx context.Context) error { return c.Delete(ctx, r, item.ID) })
package confirm

import (
	"context"
	"errors"
	"sync"
)

// State of the dialog.
type State int

const (
	Closed State = iota
	Open
	Busy
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Busy:
		return "busy"
	}
	return "closed"
}

var (
	// ErrNotOpen is returned by Confirm when nothing awaits confirmation.
	ErrNotOpen = errors.New("confirm: dialog is not open")
	// ErrBusy is returned by Confirm while a delete is running.
	ErrBusy = errors.New("confirm: delete in progress")
)

// Dialog asks for confirmation of one deletion at a time.
type Dialog struct {
	mu     sync.Mutex
	state  State
	target string
	name   string
	err    error
}

func New() *Dialog { return &Dialog{} }

// Open asks to delete target, shown to the user as name. Opening while busy
// is ignored.
func (d *Dialog) Open(target, name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Busy {
		return false
	}
	d.state, d.target, d.name, d.err = Open, target, name, nil
	return true
}

// Confirm runs del. Success closes the dialog; failure leaves it open with
// the error until the caller closes it.
func (d *Dialog) Confirm(ctx context.Context, del func(context.Context) error) error {
	d.mu.Lock()
	switch d.state {
	case Closed:
		d.mu.Unlock()
		return ErrNotOpen
	case Busy:
		d.mu.Unlock()
		return ErrBusy
	}
	d.state = Busy
	d.err = nil
	d.mu.Unlock()

	err := del(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.state = Open
		d.err = err
		return err
	}
	d.state, d.target, d.name = Closed, "", ""
	return nil
}

// Close dismisses the dialog unless a delete is running.
func (d *Dialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Busy {
		return
	}
	d.state, d.target, d.name, d.err = Closed, "", "", nil
}

func (d *Dialog) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Target is the id awaiting confirmation.
func (d *Dialog) Target() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.target
}

// Name is the display name of the target.
func (d *Dialog) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name
}

// Err is the error of the last failed Confirm.
func (d *Dialog) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

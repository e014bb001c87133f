// Package form is the add/edit dialog shared by every catalog page.
//
//	d := form.NewCreate(fields)
//	_ = d.Set("precio", "12.5")
//	err := d.Submit(ctx, func(ctx context.Context, v catalog.Values) error {
//	    _, err := client.Create(ctx, catalog.Fabrics, v)
//	    return err
//	})
package form

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/shashiranjanraj/muestras/pkg/catalog"
)

// Mode says whether the dialog creates or edits.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// ErrClosed is returned by operations on a cancelled or submitted dialog.
var ErrClosed = errors.New("form: dialog is closed")

// ErrBusy is returned by Submit while a previous submit is running.
var ErrBusy = errors.New("form: submit in progress")

// RequiredError lists the required fields left empty.
type RequiredError struct {
	Fields []string
}

func (e *RequiredError) Error() string {
	return "form: required fields missing: " + strings.Join(e.Fields, ", ")
}

// FieldError reports input a field could not take.
type FieldError struct {
	Key string
	Err error
}

func (e *FieldError) Error() string { return fmt.Sprintf("form: %s: %v", e.Key, e.Err) }
func (e *FieldError) Unwrap() error { return e.Err }

// Dialog holds the values being edited. It is safe for concurrent use.
type Dialog struct {
	fields []Field
	mode   Mode
	itemID string

	mu         sync.Mutex
	values     catalog.Values
	open       bool
	submitting bool
}

// NewCreate opens a dialog seeded with activo=true and each field's default.
func NewCreate(fields []Field) *Dialog {
	d := &Dialog{fields: fields, mode: ModeCreate, open: true}
	d.values = catalog.Values{"activo": true}
	for _, f := range fields {
		if v, ok := defaultValue(f); ok {
			d.values[f.Spec().Key] = v
		}
	}
	return d
}

// NewEdit opens a dialog seeded with a copy of item's values.
func NewEdit(fields []Field, item catalog.Item) *Dialog {
	d := &Dialog{fields: fields, mode: ModeEdit, itemID: item.ID, open: true}
	d.values = item.Values()
	for _, f := range fields {
		if _, ok := f.(Password); ok {
			delete(d.values, f.Spec().Key)
		}
	}
	return d
}

func defaultValue(f Field) (any, bool) {
	switch t := f.(type) {
	case Text:
		return t.Default, t.Default != ""
	case Number:
		if t.Default == nil {
			return nil, false
		}
		return *t.Default, true
	case Switch:
		return t.Default, true
	case TextArea:
		return t.Default, t.Default != ""
	case Select:
		return t.Default, t.Default != ""
	case Password:
		return nil, false
	}
	panic(fmt.Sprintf("form: unknown field kind %T", f))
}

// Mode returns create or edit.
func (d *Dialog) Mode() Mode { return d.mode }

// ItemID is the id of the edited record; empty in create mode.
func (d *Dialog) ItemID() string { return d.itemID }

// Fields returns the descriptors the dialog was built with.
func (d *Dialog) Fields() []Field { return d.fields }

// Open reports whether the dialog still accepts input.
func (d *Dialog) Open() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// Submitting reports whether a submit is running.
func (d *Dialog) Submitting() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submitting
}

// Values returns a copy of the accumulated values.
func (d *Dialog) Values() catalog.Values {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copyValues(d.values)
}

func (d *Dialog) lookup(key string) (Field, bool) {
	for _, f := range d.fields {
		if f.Spec().Key == key {
			return f, true
		}
	}
	return nil, false
}

// Set parses raw text as the field's kind and stores it. Numbers that do not
// parse become empty; switches accept strconv.ParseBool syntax.
func (d *Dialog) Set(key, raw string) error {
	f, ok := d.lookup(key)
	if !ok {
		return &FieldError{Key: key, Err: errors.New("no such field")}
	}

	var v any
	switch t := f.(type) {
	case Text, TextArea, Password:
		v = raw
	case Number:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			v = nil
		} else {
			v = n
		}
	case Switch:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return &FieldError{Key: key, Err: err}
		}
		v = b
	case Select:
		if raw != "" && len(t.Options) > 0 && !hasOption(t.Options, raw) {
			return &FieldError{Key: key, Err: fmt.Errorf("%q is not an option", raw)}
		}
		v = raw
	default:
		panic(fmt.Sprintf("form: unknown field kind %T", f))
	}
	return d.SetValue(key, v)
}

// SetValue stores v as is.
func (d *Dialog) SetValue(key string, v any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return ErrClosed
	}
	d.values[key] = v
	return nil
}

// Assign stores a decoded JSON value for a declared field. Strings go
// through Set; anything else must already have the field's kind.
func (d *Dialog) Assign(key string, v any) error {
	if s, ok := v.(string); ok {
		return d.Set(key, s)
	}
	f, ok := d.lookup(key)
	if !ok {
		return &FieldError{Key: key, Err: errors.New("no such field")}
	}
	if v == nil {
		return d.SetValue(key, nil)
	}

	switch f.(type) {
	case Number:
		switch n := v.(type) {
		case float64:
			return d.SetValue(key, n)
		case int:
			return d.SetValue(key, float64(n))
		}
		return &FieldError{Key: key, Err: fmt.Errorf("expected a number, got %T", v)}
	case Switch:
		b, ok := v.(bool)
		if !ok {
			return &FieldError{Key: key, Err: fmt.Errorf("expected true or false, got %T", v)}
		}
		return d.SetValue(key, b)
	case Text, TextArea, Password, Select:
		return &FieldError{Key: key, Err: fmt.Errorf("expected text, got %T", v)}
	default:
		panic(fmt.Sprintf("form: unknown field kind %T", f))
	}
}

func hasOption(opts []Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

// Missing returns the keys of required fields that are empty.
func (d *Dialog) Missing() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.missing()
}

func (d *Dialog) missing() []string {
	var out []string
	for _, f := range d.fields {
		b := f.Spec()
		required := b.Required
		if p, ok := f.(Password); ok && p.RequiredOnCreate && d.mode == ModeCreate {
			required = true
		}
		if required && empty(d.values[b.Key]) {
			out = append(out, b.Key)
		}
	}
	return out
}

func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	return false
}

// Submit checks required fields and calls handler with the values. The
// dialog closes when handler succeeds and stays open with its values when it
// fails.
func (d *Dialog) Submit(ctx context.Context, handler func(context.Context, catalog.Values) error) error {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return ErrClosed
	}
	if d.submitting {
		d.mu.Unlock()
		return ErrBusy
	}
	if missing := d.missing(); len(missing) > 0 {
		d.mu.Unlock()
		return &RequiredError{Fields: missing}
	}
	values := copyValues(d.values)
	if d.mode == ModeEdit {
		for _, f := range d.fields {
			if _, ok := f.(Password); ok && empty(values[f.Spec().Key]) {
				delete(values, f.Spec().Key)
			}
		}
	}
	d.submitting = true
	d.mu.Unlock()

	err := handler(ctx, values)

	d.mu.Lock()
	d.submitting = false
	if err == nil {
		d.open = false
	}
	d.mu.Unlock()
	return err
}

// Cancel closes the dialog and discards every edit.
func (d *Dialog) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	d.values = catalog.Values{}
}

// Input is a render-ready field.
type Input struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Kind        string   `json:"kind"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder,omitempty"`
	Value       string   `json:"value"`
	Options     []Option `json:"options,omitempty"`
	Rows        int      `json:"rows,omitempty"`
	Step        float64  `json:"step,omitempty"`
}

// Inputs renders every field with its current value.
func (d *Dialog) Inputs() []Input {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Input, 0, len(d.fields))
	for _, f := range d.fields {
		b := f.Spec()
		in := Input{Key: b.Key, Label: b.Label, Required: b.Required, Placeholder: b.Placeholder}
		v := d.values[b.Key]

		switch t := f.(type) {
		case Text:
			in.Kind, in.Value = "text", text(v)
		case TextArea:
			in.Kind, in.Value, in.Rows = "textarea", text(v), t.Rows
			if in.Rows == 0 {
				in.Rows = 3
			}
		case Number:
			in.Kind, in.Value, in.Step = "number", text(v), t.Step
		case Switch:
			on, _ := v.(bool)
			in.Kind, in.Value = "switch", switchLabel(t, on)
		case Select:
			in.Kind, in.Value, in.Options = "select", text(v), t.Options
		case Password:
			in.Kind = "password"
			in.Required = b.Required || (t.RequiredOnCreate && d.mode == ModeCreate)
		default:
			panic(fmt.Sprintf("form: unknown field kind %T", f))
		}
		out = append(out, in)
	}
	return out
}

func switchLabel(s Switch, on bool) string {
	if on {
		if s.OnLabel != "" {
			return s.OnLabel
		}
		return "Active"
	}
	if s.OffLabel != "" {
		return s.OffLabel
	}
	return "Inactive"
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func copyValues(v catalog.Values) catalog.Values {
	out := make(catalog.Values, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}

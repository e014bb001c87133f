package form

import "github.com/shashiranjanraj/muestras/pkg/catalog"

// Field is one input of a form. The set of kinds is closed: Text, Number,
// Switch, TextArea, Select and Password.
type Field interface {
	Spec() Base
	field()
}

// Base is shared by every field kind.
type Base struct {
	Key         string
	Label       string
	Required    bool
	Placeholder string
}

func (b Base) Spec() Base { return b }

// Text is a single-line string.
type Text struct {
	Base
	Default string
}

// Number holds a float. Invalid input collapses to empty.
type Number struct {
	Base
	Default *float64
	Step    float64
}

// Switch is a boolean toggle.
type Switch struct {
	Base
	Default bool
	// OnLabel and OffLabel describe the two states; "Active"/"Inactive" when empty.
	OnLabel, OffLabel string
}

// TextArea is a multi-line string.
type TextArea struct {
	Base
	Default string
	Rows    int
}

// Option is one choice of a Select.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Select picks one value. Options are static, or loaded from Source.
type Select struct {
	Base
	Default string
	Options []Option
	// Source, when set, fills Options with the ids and names of another
	// resource.
	Source catalog.Resource
}

// Password is write-only: it is never seeded from an item and an empty value
// is dropped in edit mode. RequiredOnCreate enforces it only for new records.
type Password struct {
	Base
	RequiredOnCreate bool
}

func (Text) field()     {}
func (Number) field()   {}
func (Switch) field()   {}
func (TextArea) field() {}
func (Select) field()   {}
func (Password) field() {}

// Float is a helper for Number defaults.
func Float(v float64) *float64 { return &v }

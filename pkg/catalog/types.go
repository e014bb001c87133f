package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Values are the editable fields sent on create and update, keyed by the
// backend's attribute names (nombre, activo, ...).
type Values map[string]any

// Item is one catalog record. The well-known attributes are lifted into typed
// fields; everything else stays in Fields so records round-trip unchanged.
type Item struct {
	ID     string
	Name   string
	Active bool
	// Order is nil for collections without display sequencing.
	Order  *int
	Fields map[string]any
}

// ItemID returns the record identifier.
func (it Item) ItemID() string { return it.ID }

// Get returns any attribute by its backend name, including the lifted ones.
func (it Item) Get(key string) (any, bool) {
	switch key {
	case "id":
		return it.ID, it.ID != ""
	case "nombre":
		return it.Name, true
	case "activo":
		return it.Active, true
	case "orden":
		if it.Order == nil {
			return nil, false
		}
		return *it.Order, true
	}
	v, ok := it.Fields[key]
	return v, ok
}

// Values returns a copy of every attribute except the identifier, suitable
// for seeding an edit form.
func (it Item) Values() Values {
	out := make(Values, len(it.Fields)+3)
	for k, v := range it.Fields {
		out[k] = v
	}
	out["nombre"] = it.Name
	out["activo"] = it.Active
	if it.Order != nil {
		out["orden"] = *it.Order
	}
	return out
}

func (it *Item) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	*it = Item{Fields: map[string]any{}}
	for k, v := range raw {
		switch k {
		case "id":
			it.ID = scalarString(v)
		case "nombre":
			it.Name = scalarString(v)
		case "activo":
			b, _ := v.(bool)
			it.Active = b
		case "orden":
			if n, ok := asInt(v); ok {
				it.Order = &n
			}
		default:
			it.Fields[k] = v
		}
	}
	return nil
}

func (it Item) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(it.Fields)+4)
	for k, v := range it.Fields {
		out[k] = v
	}
	out["id"] = it.ID
	out["nombre"] = it.Name
	out["activo"] = it.Active
	if it.Order != nil {
		out["orden"] = *it.Order
	}
	return json.Marshal(out)
}

// ReorderItem pairs an item id with its new zero-based position.
type ReorderItem struct {
	ID    string `json:"id"`
	Order int    `json:"orden"`
}

// ReorderRequest is the body of PUT /api/{resource}/reorder.
type ReorderRequest struct {
	Items []ReorderItem `json:"items"`
}

// Query narrows list and count calls. Zero value lists everything.
type Query struct {
	Search string
	// Active filters by the activo flag when non-nil.
	Active *bool
}

// User is an account of the admin application.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"nombre_completo,omitempty"`
	Role     string `json:"rol"`
	Active   bool   `json:"activo"`
}

// RoleAdmin is the role allowed into admin-only pages.
const RoleAdmin = "admin"

// IsAdmin reports whether u holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// LoginResponse is returned by POST /api/auth/login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        User   `json:"user"`
}

// Stats maps a resource stat key to its record count.
type Stats map[string]int

// File is one upload. Name is the optional display name of named assets.
type File struct {
	Filename string
	Name     string
	Content  io.Reader
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		if f, err := t.Float64(); err == nil {
			return int(f), true
		}
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n, true
		}
	}
	return 0, false
}

package gate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/gate"
	"github.com/shashiranjanraj/muestras/pkg/session"
)

func TestDecide(t *testing.T) {
	admin := &catalog.User{Username: "root", Role: "admin"}
	editor := &catalog.User{Username: "ana", Role: "editor"}
	table := gate.Default()

	tests := []struct {
		name  string
		state session.State
		user  *catalog.User
		path  string
		want  gate.Decision
	}{
		{"loading waits", session.StateLoading, nil, "/brands", gate.Decision{Pending: true}},
		{"anonymous protected", session.StateAnonymous, nil, "/brands", gate.Decision{Redirect: "/login"}},
		{"anonymous home", session.StateAnonymous, nil, "/", gate.Decision{Redirect: "/login"}},
		{"anonymous unknown", session.StateAnonymous, nil, "/nowhere", gate.Decision{Redirect: "/login"}},
		{"anonymous login", session.StateAnonymous, nil, "/login", gate.Decision{Allow: true}},
		{"authenticated login", session.StateAuthenticated, editor, "/login", gate.Decision{Redirect: "/"}},
		{"authenticated page", session.StateAuthenticated, editor, "/fabrics/", gate.Decision{Allow: true}},
		{"nested path", session.StateAuthenticated, editor, "/brands/123?x=1", gate.Decision{Allow: true}},
		{"admin only refused", session.StateAuthenticated, editor, "/users", gate.Decision{Redirect: "/"}},
		{"admin only allowed", session.StateAuthenticated, admin, "/users", gate.Decision{Allow: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Decide(tt.state, tt.user, tt.path))
		})
	}
}

func TestResolve_LongestPrefix(t *testing.T) {
	table := gate.NewTable(
		gate.Route{Path: "/"},
		gate.Route{Path: "/admin", AdminOnly: true},
		gate.Route{Path: "/admin/public", Public: true},
	)
	assert.True(t, table.Resolve("/admin/public/x").Public)
	assert.True(t, table.Resolve("/admin/x").AdminOnly)
	assert.False(t, table.Resolve("/administrator").AdminOnly)
}

func TestDefault_CoversEveryResource(t *testing.T) {
	paths := map[string]bool{}
	for _, r := range gate.Default().Routes() {
		paths[r.Path] = true
	}
	for _, r := range catalog.All() {
		assert.True(t, paths["/"+string(r)], r)
	}
	assert.True(t, paths["/login"])
}

// Package gate decides, for every navigation, whether the current session
// may see a route or must be sent elsewhere.
//
//	d := gate.Default().Decide(sess.State(), sess.User(), "/users")
//	if d.Redirect != "" { ... }
package gate

import (
	"sort"
	"strings"

	"github.com/shashiranjanraj/muestras/pkg/catalog"
	"github.com/shashiranjanraj/muestras/pkg/session"
)

const (
	// LoginPath is where anonymous visitors are sent.
	LoginPath = "/login"
	// HomePath is the default route of an authenticated user.
	HomePath = "/"
)

// Route describes one navigable location.
type Route struct {
	Path      string
	Public    bool
	AdminOnly bool
}

// Decision is the outcome of a navigation. Exactly one of Allow, Pending or a
// non-empty Redirect holds.
type Decision struct {
	Allow    bool
	Pending  bool
	Redirect string
}

// Table resolves paths to routes by longest segment prefix.
type Table struct {
	routes []Route
}

// NewTable builds a table from routes.
func NewTable(routes ...Route) *Table {
	t := &Table{routes: append([]Route(nil), routes...)}
	sort.SliceStable(t.routes, func(i, j int) bool {
		return len(t.routes[i].Path) > len(t.routes[j].Path)
	})
	return t
}

// Default is the table of the admin application: the dashboard, the login
// page and one page per catalog resource.
func Default() *Table {
	routes := []Route{
		{Path: HomePath},
		{Path: LoginPath, Public: true},
	}
	for _, r := range catalog.All() {
		routes = append(routes, Route{Path: "/" + string(r), AdminOnly: r.AdminOnly()})
	}
	return NewTable(routes...)
}

// Routes returns every route in the table, shortest path first.
func (t *Table) Routes() []Route {
	out := append([]Route(nil), t.routes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Resolve finds the route owning path. Unknown paths resolve to a protected,
// non-admin route.
func (t *Table) Resolve(path string) Route {
	p := normalize(path)
	for _, r := range t.routes {
		if r.Path == HomePath {
			continue
		}
		if p == r.Path || strings.HasPrefix(p, r.Path+"/") {
			return r
		}
	}
	return Route{Path: p}
}

// Decide applies the access rules:
//   - while the session is loading nothing is decided yet;
//   - anonymous visitors of protected routes go to the login page;
//   - authenticated users on the login page go home;
//   - admin-only routes send everyone but admins home.
func (t *Table) Decide(state session.State, user *catalog.User, path string) Decision {
	if state == session.StateLoading {
		return Decision{Pending: true}
	}

	route := t.Resolve(path)
	authenticated := state == session.StateAuthenticated && user != nil

	if !authenticated {
		if route.Public {
			return Decision{Allow: true}
		}
		return Decision{Redirect: LoginPath}
	}

	if route.Path == LoginPath {
		return Decision{Redirect: HomePath}
	}
	if route.AdminOnly && !user.IsAdmin() {
		return Decision{Redirect: HomePath}
	}
	return Decision{Allow: true}
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return HomePath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

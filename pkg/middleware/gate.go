package middleware

import (
	"net/http"

	"github.com/shashiranjanraj/muestras/pkg/gate"
	"github.com/shashiranjanraj/muestras/pkg/response"
	"github.com/shashiranjanraj/muestras/pkg/router"
	"github.com/shashiranjanraj/muestras/pkg/session"
)

// Gate applies the navigation rules of table to console API calls. route
// maps the request onto the page it serves; nil uses the home page.
//
//	api.Get("/pages/{resource}", "pages.show", ctrl.Show,
//	    middleware.Gate(gate.Default(), middleware.ResourceRoute))
//
// Anonymous callers get 401, non-admins on admin pages 403, signed-in
// callers of guest routes 409 and a session still loading 503.
func Gate(table *gate.Table, route func(*http.Request) string) func(http.Handler) http.Handler {
	if route == nil {
		route = func(*http.Request) string { return gate.HomePath }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.FromCtx(r.Context())
			if sess == nil {
				response.Unauthorized(w)
				return
			}

			path := route(r)
			d := table.Decide(sess.State(), sess.User(), path)
			switch {
			case d.Allow:
				next.ServeHTTP(w, r)
			case d.Pending:
				response.Error(w, http.StatusServiceUnavailable, "Session is loading")
			case d.Redirect == gate.LoginPath:
				response.Unauthorized(w)
			case table.Resolve(path).Path == gate.LoginPath:
				response.Error(w, http.StatusConflict, "Already authenticated")
			default:
				response.Forbidden(w)
			}
		})
	}
}

// ResourceRoute maps /pages/{resource}/... calls onto the resource's page.
func ResourceRoute(r *http.Request) string {
	return "/" + router.Param(r, "resource")
}

// Guest lets only anonymous sessions through (the login call).
func Guest(table *gate.Table) func(http.Handler) http.Handler {
	return Gate(table, func(*http.Request) string { return gate.LoginPath })
}

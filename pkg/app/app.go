// Package app assembles the console: global middleware, routes and the
// background jobs that run next to the HTTP server.
//
//	console := services.NewConsole(services.ConfigFromEnv(), session.DefaultOptions())
//	err := app.New().
//	    Sessions(console.Sessions().Middleware).
//	    Routes(func(r *router.Router) { routes.RegisterAPI(r, console) }).
//	    Background(jobs.Run).
//	    Serve(ctx)
package app

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/muestras/pkg/router"
)

// Application is the console builder. Project code is injected through the
// builder methods; this package imports none of it.
type Application struct {
	routesFns  []func(*router.Router)
	sessions   router.Middleware
	background []func(context.Context)
	origins    []string

	once sync.Once
	r    *router.Router
}

// New creates an empty Application.
func New() *Application {
	return &Application{}
}

// Routes registers a route callback. Callbacks run in order when the router
// is first built.
func (a *Application) Routes(fn func(*router.Router)) *Application {
	a.routesFns = append(a.routesFns, fn)
	return a
}

// Sessions sets the cookie session middleware.
func (a *Application) Sessions(mw router.Middleware) *Application {
	a.sessions = mw
	return a
}

// CORSOrigins overrides the allowed browser origins.
func (a *Application) CORSOrigins(origins ...string) *Application {
	a.origins = origins
	return a
}

// Background adds a job that runs for the lifetime of Serve.
func (a *Application) Background(fn func(context.Context)) *Application {
	a.background = append(a.background, fn)
	return a
}

// Router returns the router with every route registered.
func (a *Application) Router() *router.Router {
	a.once.Do(func() { a.r = buildRouter(a) })
	return a.r
}

package app

import (
	"net/http"
	"strings"

	"github.com/shashiranjanraj/muestras/config"
	"github.com/shashiranjanraj/muestras/pkg/metrics"
	"github.com/shashiranjanraj/muestras/pkg/middleware"
	"github.com/shashiranjanraj/muestras/pkg/reqid"
	"github.com/shashiranjanraj/muestras/pkg/router"
)

// buildRouter wires the global middleware stack, then the route callbacks.
func buildRouter(a *Application) *router.Router {
	r := router.New()

	// Global middleware stack (outermost → innermost):
	//  1. Prometheus metrics, for total latency
	//  2. Recovery
	//  3. Request ID, before anything logs
	//  4. Logger
	//  5. CORS, so preflights need no session
	//  6. Session cookie
	origins := a.origins
	if origins == nil {
		origins = config.CORSOrigins()
	}
	r.Use(metrics.Middleware(router.Pattern))
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(origins)))
	if a.sessions != nil {
		r.Use(under(ConsolePrefix, a.sessions))
	}

	for _, fn := range a.routesFns {
		fn(r)
	}
	return r
}

// Handler returns the console http.Handler.
func (a *Application) Handler() http.Handler {
	return a.Router().Handler()
}

// ConsolePrefix is where cookie sessions apply; probes and /metrics stay
// sessionless.
const ConsolePrefix = "/console/"

func under(prefix string, mw router.Middleware) router.Middleware {
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, prefix) {
				wrapped.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Package routes registers the console endpoints.
package routes

import (
	"time"

	"github.com/shashiranjanraj/muestras/app/controllers"
	"github.com/shashiranjanraj/muestras/app/services"
	"github.com/shashiranjanraj/muestras/config"
	"github.com/shashiranjanraj/muestras/pkg/gate"
	"github.com/shashiranjanraj/muestras/pkg/logger"
	"github.com/shashiranjanraj/muestras/pkg/metrics"
	"github.com/shashiranjanraj/muestras/pkg/middleware"
	"github.com/shashiranjanraj/muestras/pkg/router"
)

func RegisterAPI(r *router.Router, console *services.Console) {
	table := gate.Default()
	authController := controllers.NewAuthController(console)
	pageController := controllers.NewPageController(console)
	consoleController := controllers.NewConsoleController(console)

	r.Get("/healthz", "health", controllers.Health)
	r.Get("/metrics", "metrics", metrics.Handler())

	api := r.Group("/console/api")
	limiter := middleware.NewLimiter(config.LoginRateLimit(), time.Minute, nil)
	if err := limiter.TrustProxies(config.TrustedProxies()...); err != nil {
		logger.Warn("routes: ignoring TRUSTED_PROXIES", "error", err)
	}
	api.Post("/login", "auth.login", authController.Login,
		middleware.RateLimit(limiter), middleware.Guest(table))

	signedIn := api.Group("", middleware.Gate(table, nil))
	signedIn.Post("/logout", "auth.logout", authController.Logout)
	signedIn.Get("/me", "auth.me", authController.Me)
	signedIn.Get("/dashboard", "dashboard", consoleController.Dashboard)
	signedIn.Get("/pages", "pages.index", pageController.Index)
	signedIn.Get("/files/*", "files.show", consoleController.File)
	signedIn.Get("/toasts", "toasts", consoleController.Toasts)
	signedIn.Get("/toasts/stream", "toasts.stream", consoleController.ToastStream)

	page := api.Group("/pages/{resource}", middleware.Gate(table, middleware.ResourceRoute))
	page.Get("/", "pages.show", pageController.Show)
	page.Get("/form", "pages.form", pageController.Form)
	page.Post("/items", "pages.create", pageController.Create)
	page.Put("/items/{id}", "pages.update", pageController.Update)
	page.Post("/confirmation", "pages.delete.request", pageController.RequestDelete)
	page.Get("/confirmation", "pages.delete.show", pageController.Confirmation)
	page.Delete("/confirmation", "pages.delete.cancel", pageController.CancelDelete)
	page.Delete("/items/{id}", "pages.delete", pageController.Delete)
	page.Post("/reorder", "pages.reorder", pageController.Reorder)
	page.Post("/items/{id}/{asset}", "pages.upload", pageController.Upload)
	page.Delete("/items/{id}/{asset}/{index}", "pages.asset.delete", pageController.RemoveAsset)
	page.Delete("/items/{id}/{asset}", "pages.asset.clear", pageController.RemoveAsset)
}

// Package http provides HTTP routing and handlers for the launcher daemon's
// loopback JSON API.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/GameLauncher/internal/metrics"
	"github.com/atinyakov/GameLauncher/internal/middleware"
)

// Handlers groups the endpoint implementations mounted by NewRouter.
type Handlers struct {
	Auth     *AuthHandler
	Catalog  *CatalogHandler
	History  *HistoryHandler
	Settings *SettingsHandler
	// Metrics serves the Prometheus exposition. Nil disables /metrics.
	Metrics http.Handler
}

// NewRouter constructs and returns an HTTP handler that serves the launcher
// API. It applies JSON content-type enforcement and request logging, and
// mounts the account and settings endpoints publicly and the catalog and
// history behind the local session.
//
// Routes:
//
//	POST   /api/register               → Auth.Register
//	POST   /api/login                  → Auth.Login (rate limited)
//	POST   /api/logout                 → Auth.Logout
//	GET    /api/session                → Auth.Session
//	GET    /api/categories             → Catalog.ListCategories
//	POST   /api/categories             → Catalog.AddCategory
//	DELETE /api/categories/{name}      → Catalog.DeleteCategory
//	GET    /api/games                  → Catalog.ListGames (?category_id=, ?order=asc|desc)
//	POST   /api/games                  → Catalog.AddGame
//	GET    /api/games/{name}           → Catalog.GetGame
//	PUT    /api/games/{name}           → Catalog.UpdateGame
//	DELETE /api/games/{name}           → Catalog.DeleteGame
//	POST   /api/games/{name}/play      → Catalog.Play
//	GET    /api/history                → History.Recent
//	DELETE /api/history                → History.Clear
//	GET    /api/settings/theme         → Settings.Theme
//	PUT    /api/settings/theme         → Settings.SetTheme
//	POST   /api/repair                 → Catalog.Repair
//	GET    /metrics                    → Metrics
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") rejects non-JSON request bodies
//  2. WithRequestLogging(logger, rec) logs requests with a request id
//  3. RequireSession(session) guards the protected group
func NewRouter(
	h Handlers,
	session middleware.SessionResolver,
	limiter *middleware.LoginLimiter,
	rec metrics.Recorder,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger, rec))

	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/register", h.Auth.Register)
		r.With(limiter.Middleware).Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)
		r.Get("/session", h.Auth.Session)
		r.Get("/settings/theme", h.Settings.Theme)
		r.Put("/settings/theme", h.Settings.SetTheme)

		// Protected group: requires a logged-in local user
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(session))

			r.Get("/categories", h.Catalog.ListCategories)
			r.Post("/categories", h.Catalog.AddCategory)
			r.Delete("/categories/{name}", h.Catalog.DeleteCategory)

			r.Get("/games", h.Catalog.ListGames)
			r.Post("/games", h.Catalog.AddGame)
			r.Get("/games/{name}", h.Catalog.GetGame)
			r.Put("/games/{name}", h.Catalog.UpdateGame)
			r.Delete("/games/{name}", h.Catalog.DeleteGame)
			r.Post("/games/{name}/play", h.Catalog.Play)

			r.Get("/history", h.History.Recent)
			r.Delete("/history", h.History.Clear)

			r.Post("/repair", h.Catalog.Repair)
		})
	})

	return r
}

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/neexbeast/vacation-planner/internal/observability"
)

// RouterDeps collects what NewRouter needs besides the handlers.
type RouterDeps struct {
	Sessions           CallerResolver
	DB                 pinger
	Redis              pinger
	RateLimitPerMinute int
	Log                *slog.Logger
}

// NewRouter builds and returns the Chi router with all routes configured.
// Health, metrics and static assets skip the session lookup and the per-IP limit.
func NewRouter(handlers *Handlers, deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLog(deps.Log))

	r.Get("/health", HealthHandlerFunc(deps.DB, deps.Redis, deps.Log))
	r.Method(http.MethodGet, "/metrics", observability.Handler())
	r.Method(http.MethodGet, "/static/*", Static())

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(deps.RateLimitPerMinute, time.Minute))
		r.Use(Identity(deps.Sessions, deps.Log))

		r.Get("/", handlers.Index)
		r.Post("/", handlers.Plan)
		r.Get("/result", handlers.Index)
		r.Get("/about", handlers.About)
	})

	r.NotFound(NotFound)
	r.MethodNotAllowed(NotFound)

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)

package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/crm-access/internal/auth"
	"github.com/frahmantamala/crm-access/internal/task"
	"github.com/frahmantamala/crm-access/internal/transport/middleware"
	"github.com/frahmantamala/crm-access/internal/transport/swagger"
	"github.com/frahmantamala/crm-access/internal/user"
)

// Handlers groups everything the router mounts. Nil handlers leave their
// routes unregistered.
type Handlers struct {
	Health  *HealthHandler
	Auth    *auth.Handler
	Guard   *auth.RBACAuthorization
	Users   *user.Handler
	Tasks   *task.Handler
	Metrics http.Handler
}

type Options struct {
	AllowedOrigins []string
	MetricsPath    string
	OpenAPIPath    string
	HTTPMetrics    *middleware.HTTPMetrics
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) {
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	if opts.HTTPMetrics != nil {
		router.Use(opts.HTTPMetrics.Middleware)
	}
	router.Use(middleware.LoggingMiddleware(logger))

	if opts.OpenAPIPath != "" {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, opts.OpenAPIPath)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	if h.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, h.Metrics)
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.Users != nil {
				pr.Get("/users/me", h.Users.GetCurrentUser)
				pr.Get("/users/{id}/reports", h.Users.ListReports)
			}

			if h.Tasks != nil {
				pr.Route("/tasks", func(tr chi.Router) {
					tr.Get("/", h.Tasks.ListTasks)
					tr.Get("/{id}", h.Tasks.GetTask)
					// Assignment rules live in the assignment service so that
					// denials carry role-specific messages.
					tr.Patch("/{id}/assign", h.Tasks.AssignTask)

					tr.Group(func(cr chi.Router) {
						if h.Guard != nil {
							cr.Use(h.Guard.RequirePermission("tasks", "create"))
						}
						cr.Post("/", h.Tasks.CreateTask)
					})
				})
			}
		})
	})
}

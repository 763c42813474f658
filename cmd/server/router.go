package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phrazzld/taskdigest-api/internal/api"
	"github.com/phrazzld/taskdigest-api/internal/api/middleware"
)

type routerDeps struct {
	logger        *slog.Logger
	authHandler   *api.AuthHandler
	taskHandler   *api.TaskHandler
	authenticator middleware.Authenticator
	// limiter is nil when rate limiting is disabled.
	limiter     *middleware.RateLimiter
	corsOrigins []string
}

// newRouter builds the HTTP routes.
func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.NewTraceMiddleware(deps.logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	authMiddleware := middleware.NewAuthMiddleware(deps.authenticator)

	r.Route("/api", func(r chi.Router) {
		if deps.limiter != nil {
			r.Use(deps.limiter.Middleware)
		}

		r.Post("/register", deps.authHandler.Register)
		r.Post("/login", deps.authHandler.Login)
		r.Get("/verify_email/{token}", deps.authHandler.VerifyEmail)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/tasks", deps.taskHandler.List)
			r.Post("/tasks", deps.taskHandler.Create)
			r.Get("/tasks/{id}", deps.taskHandler.Get)
			r.Put("/tasks/{id}", deps.taskHandler.Update)
			r.Delete("/tasks/{id}", deps.taskHandler.Delete)
		})
	})

	return r
}

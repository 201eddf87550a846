package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskflow-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskflow-api/internal/api/middleware"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(apiMiddleware.RequestMetrics(app.metrics))

	authHandler := api.NewAuthHandler(
		app.userService,
		app.jwtService,
		time.Duration(app.config.Auth.TokenLifetimeMinutes)*time.Minute,
		app.logger,
	)
	userHandler := api.NewUserHandler(app.userService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	notificationHandler := api.NewNotificationHandler(app.notificationService, app.logger)
	realtimeHandler := api.NewRealtimeHandler(
		app.hub,
		app.registry,
		app.notificationService,
		app.metrics,
		app.config.Server.AllowedOrigins,
		app.writeTimeout(),
		app.logger,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService, app.userService, app.logger)
	authRateLimit := apiMiddleware.RateLimit(
		app.limiter, app.config.RateLimit.AuthRequestsPerMinute, time.Minute, app.metrics)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authRateLimit)
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})
		r.Post("/auth/refresh", authHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/auth/profile", authHandler.Profile)
			r.Put("/auth/profile", authHandler.UpdateProfile)

			r.Route("/users", func(r chi.Router) {
				r.Use(apiMiddleware.RequireAdmin)
				r.Get("/", userHandler.ListUsers)
				r.Get("/{id}", userHandler.GetUser)
				r.Delete("/{id}", userHandler.DeleteUser)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.ListTasks)
				r.Get("/dashboard", taskHandler.Dashboard)
				r.Get("/user-dashboard", taskHandler.UserDashboard)
				r.Get("/{id}", taskHandler.GetTask)
				r.Put("/{id}/status", taskHandler.UpdateStatus)
				r.Put("/{id}/checklist", taskHandler.UpdateChecklist)

				r.With(apiMiddleware.RequireAdmin).Post("/", taskHandler.CreateTask)
				r.With(apiMiddleware.RequireAdmin).Put("/{id}", taskHandler.UpdateTask)
				r.With(apiMiddleware.RequireAdmin).Delete("/{id}", taskHandler.DeleteTask)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.With(apiMiddleware.RequireAdmin).Post("/", notificationHandler.Create)
				r.Get("/user", notificationHandler.ListForCaller)
				r.Post("/read", notificationHandler.MarkRead)
			})
		})
	})

	r.With(authMiddleware.AuthenticateWebsocket).Get("/ws", realtimeHandler.Serve)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	return r
}

package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/reimburse-api/internal/api"
	apiMiddleware "github.com/phrazzld/reimburse-api/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(app.metrics.Middleware)

	authHandler := api.NewAuthHandler(app.userService, app.jwtService, app.metrics, app.logger)
	userHandler := api.NewUserHandler(app.userService, app.logger)
	reimbursementHandler := api.NewReimbursementHandler(app.reimbursementService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Group(func(r chi.Router) {
		// Requests without a token continue as anonymous; admin checks happen in the services.
		r.Use(authMiddleware.Identify)

		r.Post("/auth/login", authHandler.Login)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.Register)
			r.Get("/", userHandler.List)
			r.Delete("/", userHandler.Delete)
			r.Get("/search/{username}", userHandler.Search)
			r.Get("/username/{username}", userHandler.GetByUsername)
		})

		r.Route("/reimbursements", func(r chi.Router) {
			r.Post("/", reimbursementHandler.Create)
			r.Put("/", reimbursementHandler.Resolve)
			r.Get("/all/{pending}", reimbursementHandler.ListAll)
			r.Get("/user/{pending}/{username}", reimbursementHandler.ListForUser)
			r.Get("/amount/{username}", reimbursementHandler.TotalPending)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	return r
}

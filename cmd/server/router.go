package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	appmiddleware "github.com/ecomroutine/ecomroutine-api/internal/api/middleware"
)

// setupRouter wires all routes and middleware onto a chi router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.TraceMiddleware)

	authHandler, marketplaceHandler, routineHandler, taskHandler, userHandler, authMiddleware :=
		app.setupHandlers()

	r.Route("/api", func(r chi.Router) {
		// Public authentication endpoints.
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Everything else requires a valid token for an active account.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)

			r.Route("/marketplaces", func(r chi.Router) {
				r.Get("/", marketplaceHandler.List)
				r.Post("/", marketplaceHandler.Create)
				r.Get("/{id}", marketplaceHandler.Get)
				r.Put("/{id}", marketplaceHandler.Update)
				r.Delete("/{id}", marketplaceHandler.Delete)
				r.Post("/{id}/toggle-favorite", marketplaceHandler.ToggleFavorite)
				r.Post("/{id}/toggle-active", marketplaceHandler.ToggleActive)
			})

			r.Route("/routines", func(r chi.Router) {
				r.Get("/", routineHandler.List)
				r.Post("/", routineHandler.Create)
				r.Get("/stats", routineHandler.Stats)
				r.Get("/{id}", routineHandler.Get)
				r.Put("/{id}", routineHandler.Update)
				r.Delete("/{id}", routineHandler.Delete)
				r.Post("/{id}/execute", routineHandler.Execute)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Get("/daily", taskHandler.Daily)
				r.Get("/stats", taskHandler.Stats)
				r.Get("/{id}", taskHandler.Get)
				r.Put("/{id}", taskHandler.Update)
				r.Delete("/{id}", taskHandler.Delete)
				r.Post("/{id}/start", taskHandler.Start)
				r.Post("/{id}/complete", taskHandler.Complete)
				r.Post("/{id}/pause", taskHandler.Pause)
			})

			r.Route("/users", func(r chi.Router) {
				// Reads and updates check owner-or-admin in the handler.
				r.Get("/{id}", userHandler.Get)
				r.Put("/{id}", userHandler.Update)

				r.Group(func(r chi.Router) {
					r.Use(authMiddleware.RequireAdmin)
					r.Get("/", userHandler.List)
					r.Post("/", userHandler.Create)
					r.Delete("/{id}", userHandler.Delete)
				})
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}

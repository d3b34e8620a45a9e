/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend

SECURITY NOTE:
  No authentication middleware. The engine takes a user id and a date and
  is agnostic to how the caller was authenticated; putting an auth proxy
  in front is a deployment concern.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{id}", h.GetUser)
			r.Get("/{id}/entitlement", h.GetEntitlement)
			r.Get("/{id}/balance", h.GetBalance)
			r.Get("/{id}/absences", h.ListAbsences)
			r.Post("/{id}/absences", h.CreateAbsence)
			r.Get("/{id}/requests", h.ListRequests)
			r.Post("/{id}/requests", h.SubmitRequest)
			r.Get("/{id}/bonus", h.ListBonusGrants)
			r.Post("/{id}/bonus", h.GrantBonus)
		})

		r.Route("/requests", func(r chi.Router) {
			r.Post("/{id}/approve", h.ApproveRequest)
			r.Post("/{id}/reject", h.RejectRequest)
			r.Post("/{id}/cancel", h.CancelRequest)
		})

		r.Delete("/absences/{id}", h.DeleteAbsence)
		r.Delete("/bonus/{id}", h.DeleteBonusGrant)
		r.Get("/leave-types", h.ListLeaveTypes)
	})

	return r
}

/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the admin frontend

ROUTE GROUPS:
  /api/rates/*          Rate resolution
  /api/charge-rates/*   Cost model
  /api/penalties/*      Penalty estimates
  /api/calculations/*   Calculation records and approval
  /api/apprentices/*    Per-apprentice record listing
  /api/quotes/*         Quotes
  /api/scenarios/*      Demo scenarios
  /healthz              Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/rates/resolve", h.ResolveRate)
		r.Post("/charge-rates/compute", h.ComputeChargeRate)
		r.Post("/penalties/estimate", h.EstimatePenalties)

		// Calculation routes
		r.Route("/calculations", func(r chi.Router) {
			r.Post("/", h.CreateCalculation)
			r.Get("/{id}", h.GetCalculation)
			r.Post("/{id}/approve", h.ApproveCalculation)
		})

		r.Get("/apprentices/{id}/calculations", h.ListCalculations)

		// Quote routes
		r.Route("/quotes", func(r chi.Router) {
			r.Post("/", h.CreateQuote)
			r.Get("/{id}", h.GetQuote)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard frontend

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

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Instrument routes
		r.Route("/instruments", func(r chi.Router) {
			r.Get("/", h.ListInstruments)
			r.Post("/", h.CreateInstrument)
			r.Get("/{id}", h.GetInstrument)
			r.Put("/{id}", h.UpdateInstrument)
			r.Delete("/{id}", h.DeleteInstrument)
			r.Get("/{id}/interest", h.GetInstrumentInterest)
		})

		// Ledger routes
		r.Get("/flows", h.ListFlows)
		r.Post("/flows", h.CreateFlow)
		r.Post("/sync", h.SyncFlows)

		// Rate schedule routes
		r.Route("/rates", func(r chi.Router) {
			r.Get("/", h.GetRateSchedule)
			r.Get("/overrides", h.ListRateOverrides)
			r.Put("/overrides", h.SaveRateOverride)
			r.Delete("/overrides/{year}", h.DeleteRateOverride)
		})

		// Tier routes
		r.Route("/tiers", func(r chi.Router) {
			r.Get("/", h.ListTiers)
			r.Post("/", h.SaveTier)
			r.Delete("/{id}", h.DeleteTier)
			r.Get("/snapshot", h.GetTierSnapshot)
		})

		// Projection route
		r.Post("/projection", h.RunProjection)

		// FX routes
		r.Get("/fx", h.ListFXRates)
		r.Put("/fx", h.SaveFXRate)

		// Demo scenario routes
		r.Get("/scenarios", h.ListScenarios)
		r.Post("/scenarios/load", h.LoadScenario)
	})

	return r
}

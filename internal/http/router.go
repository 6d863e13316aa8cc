package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/planetarium-reservations/internal/observability"
	"github.com/robertarktes/planetarium-reservations/internal/rateLimit"
)

func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter, jwtSecret string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(MetricsMiddleware)
	r.Use(TracingMiddleware)

	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// Everything below requires authentication. Reads are open to any
	// authenticated actor; writes outside a user's own reservations are
	// staff only.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))
		if rl != nil {
			r.Use(RateLimitMiddleware(rl))
		}

		r.Get("/v1/show-themes", h.ListThemes)
		r.Get("/v1/show-themes/{id}", h.GetTheme)
		r.Get("/v1/astronomy-shows", h.ListShows)
		r.Get("/v1/astronomy-shows/{id}", h.GetShow)
		r.Get("/v1/planetarium-domes", h.ListDomes)
		r.Get("/v1/planetarium-domes/{id}", h.GetDome)
		r.Get("/v1/show-sessions", h.ListSessions)
		r.Get("/v1/show-sessions/{id}", h.GetSession)

		r.Post("/v1/reservations", h.CreateReservation)
		r.Get("/v1/reservations", h.ListReservations)
		r.Delete("/v1/reservations/{id}", h.DeleteReservation)

		r.Group(func(r chi.Router) {
			r.Use(RequireStaff)

			r.Post("/v1/show-themes", h.CreateTheme)
			r.Put("/v1/show-themes/{id}", h.UpdateTheme)
			r.Delete("/v1/show-themes/{id}", h.DeleteTheme)
			r.Post("/v1/astronomy-shows", h.CreateShow)
			r.Put("/v1/astronomy-shows/{id}", h.UpdateShow)
			r.Delete("/v1/astronomy-shows/{id}", h.DeleteShow)
			r.Post("/v1/planetarium-domes", h.CreateDome)
			r.Post("/v1/show-sessions", h.CreateSession)
			r.Put("/v1/show-sessions/{id}", h.UpdateSession)
			r.Delete("/v1/show-sessions/{id}", h.DeleteSession)
			r.Post("/v1/tickets", h.CreateTicket)
			r.Delete("/v1/tickets/{id}", h.DeleteTicket)
		})
	})

	return r
}

package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured.
// Forwarding headers are honoured only when trustProxy is set; otherwise the
// throttle keys on the connection's peer address.
func NewRouter(h *Handler, throttle *ClientThrottle, trustProxy bool) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	if trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			if throttle != nil {
				r.Use(throttle.Middleware)
			}

			r.Get("/episodes", h.ListEpisodes)
			r.Post("/sessions", h.CreateSession)

			r.Route("/sessions/{id}", func(r chi.Router) {
				r.Use(SessionMiddleware(h.sessions))

				r.Get("/", h.GetSession)
				r.Delete("/", h.DeleteSession)
				r.Post("/episode", h.SelectEpisode)
				r.Post("/investigations", h.Investigate)
				r.Post("/hints", h.PaidHint)
				r.Post("/reset", h.ResetGame)
				r.Get("/limits", h.Limits)
				r.Post("/limits/reset", h.ResetLimits)
				r.Get("/transcript", h.Transcript)
			})
		})
	})

	return r
}

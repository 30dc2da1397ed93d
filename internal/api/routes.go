package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Routes(m *Middleware, corsOrigins []string, rateLimitRPM int) *chi.Mux {
	r := chi.NewRouter()

	r.Use(m.RequestID)
	r.Use(m.RequestLogger)
	r.Use(m.Recoverer)
	r.Use(m.SecurityHeaders)
	r.Use(middleware.Heartbeat("/ping"))

	r.Use(m.CORS(corsOrigins))
	r.Use(m.RateLimit(rateLimitRPM))

	// Health endpoints
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)

	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}

	// v1 API routes
	r.Route("/v1", func(r chi.Router) {
		// The stream endpoints hold their connections open and must not
		// be buffered, so timeout and gzip apply to the JSON routes only.
		r.Group(func(r chi.Router) {
			r.Use(m.Timeout(15 * time.Second))
			r.Use(m.Compress)

			r.Get("/assets", h.ListAssets)
			r.Get("/view", h.GetView)
			r.Post("/refresh", h.TriggerRefresh)

			r.Get("/favorites", h.ListFavorites)
			r.Post("/favorites/{id}/toggle", h.ToggleFavorite)

			r.Put("/page", h.SetPage)
			r.Put("/page-size", h.SetPageSize)
			r.Put("/sort", h.SetSort)
			r.Put("/filters", h.SetFilters)
			r.Delete("/filters", h.ResetFilters)
		})

		// Live updates
		r.Get("/stream", h.hub.HandleSSE)
		r.Get("/ws", h.hub.HandleWebSocket)
	})

	return r
}

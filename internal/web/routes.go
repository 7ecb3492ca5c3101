package web

import "github.com/go-chi/chi/v5"

func (s *Server) setupRoutes() {
	s.router.Get("/api/v1/health", healthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/events", s.handleEvent)
	})
}

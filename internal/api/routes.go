package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(ownerMiddleware)

		r.Post("/cards", s.handleCreateCard)
		r.Get("/cards/{id}", s.handleGetCard)
		r.Post("/cards/{id}/review", s.handleReviewCard)
		r.Get("/cards/due", s.handleDueCards)
		r.Get("/cards/due/count", s.handleDueCount)
		r.Get("/decks", s.handleDecks)
	})

	return r
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/studydeck/studydeck/internal/errors"
	"github.com/studydeck/studydeck/internal/logger"
)

type createCardRequest struct {
	DeckID string `json:"deck_id"`
	Front  string `json:"front" validate:"required"`
	Back   string `json:"back" validate:"required"`
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	ownerID, ok := ownerFromContext(r.Context())
	if !ok {
		handleError(w, r, errors.NewBadRequestError("missing owner"))
		return
	}

	var req createCardRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.CardService.CreateCard(r.Context(), ownerID, req.DeckID, req.Front, req.Back)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("card created: id=%s", card.ID)
	respondJSON(w, r, http.StatusCreated, card)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(r.Context())
	if !ok {
		handleError(w, r, errors.NewBadRequestError("missing owner"))
		return
	}

	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, errors.NewBadRequestError("invalid card ID"))
		return
	}

	card, err := s.CardService.GetCard(r.Context(), cardID, ownerID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, card)
}

func (s *Server) handleDecks(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(r.Context())
	if !ok {
		handleError(w, r, errors.NewBadRequestError("missing owner"))
		return
	}

	decks, err := s.CardService.ListDecks(r.Context(), ownerID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{"decks": decks})
}

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/studydeck/studydeck/internal/errors"
	"github.com/studydeck/studydeck/internal/logger"
)

func (s *Server) handleDueCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	ownerID, ok := ownerFromContext(r.Context())
	if !ok {
		handleError(w, r, errors.NewBadRequestError("missing owner"))
		return
	}

	deckID := r.URL.Query().Get("deck")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			handleError(w, r, errors.NewBadRequestError("invalid limit"))
			return
		}
		limit = n
	}

	cards, err := s.ReviewService.DueCards(r.Context(), ownerID, deckID, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Debug("returning %d due cards", len(cards))
	respondJSON(w, r, http.StatusOK, map[string]any{"cards": cards, "count": len(cards)})
}

func (s *Server) handleDueCount(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(r.Context())
	if !ok {
		handleError(w, r, errors.NewBadRequestError("missing owner"))
		return
	}

	count, err := s.ReviewService.CountDue(r.Context(), ownerID, r.URL.Query().Get("deck"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{"count": count})
}

type reviewRequest struct {
	// Quality is the raw 0..5 recall score; the default UI surfaces only
	// Again=0, Hard=1, Good=3, Easy=5, but 2 and 4 are accepted.
	Quality *int `json:"quality" validate:"required,min=0,max=5"`
}

func (s *Server) handleReviewCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	ownerID, ok := ownerFromContext(r.Context())
	if !ok {
		handleError(w, r, errors.NewBadRequestError("missing owner"))
		return
	}

	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		log.Warn("invalid card ID: %s", chi.URLParam(r, "id"))
		handleError(w, r, errors.NewBadRequestError("invalid card ID"))
		return
	}

	var req reviewRequest
	if err := decodeAndValidate(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.ReviewService.ReviewCard(r.Context(), cardID, ownerID, *req.Quality)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("card reviewed: id=%s, quality=%d", cardID, *req.Quality)
	respondJSON(w, r, http.StatusOK, card)
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/studydeck/studydeck/internal/errors"
	"github.com/studydeck/studydeck/internal/logger"
	"github.com/studydeck/studydeck/internal/models"
	"github.com/studydeck/studydeck/internal/repository"
	"github.com/studydeck/studydeck/internal/scheduler"
)

// CardService handles card authoring and lookup
type CardService interface {
	CreateCard(ctx context.Context, ownerID uuid.UUID, deckID, front, back string) (*models.Card, error)
	GetCard(ctx context.Context, cardID, ownerID uuid.UUID) (*models.Card, error)
	ListDecks(ctx context.Context, ownerID uuid.UUID) ([]models.DeckSummary, error)
}

type cardService struct {
	cards repository.CardRepository
	now   func() time.Time
}

// NewCardService creates a new CardService
func NewCardService(cards repository.CardRepository) CardService {
	return &cardService{cards: cards, now: time.Now}
}

func (s *cardService) CreateCard(ctx context.Context, ownerID uuid.UUID, deckID, front, back string) (*models.Card, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(front) == "" {
		return nil, apperrors.NewValidationError("front", "cannot be empty")
	}
	if strings.TrimSpace(back) == "" {
		return nil, apperrors.NewValidationError("back", "cannot be empty")
	}

	now := s.now()
	card := models.Card{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		DeckID:          deckID,
		Front:           front,
		Back:            back,
		SchedulingState: scheduler.NewState(now),
		CreatedAt:       now,
	}

	if err := s.cards.Insert(ctx, card); err != nil {
		log.Error("failed to insert card: %v", err)
		return nil, apperrors.NewInternalError(err)
	}

	log.Debug("card created: id=%s, deck=%s", card.ID, card.DeckID)
	return &card, nil
}

func (s *cardService) GetCard(ctx context.Context, cardID, ownerID uuid.UUID) (*models.Card, error) {
	log := logger.FromContext(ctx)

	card, err := s.cards.Get(ctx, cardID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("card", cardID)
		}
		log.Error("failed to get card: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	return card, nil
}

func (s *cardService) ListDecks(ctx context.Context, ownerID uuid.UUID) ([]models.DeckSummary, error) {
	log := logger.FromContext(ctx)

	decks, err := s.cards.ListDecks(ctx, ownerID, s.now())
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, apperrors.NewInternalError(err)
	}
	return decks, nil
}

package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/studydeck/studydeck/internal/models"
)

// MockCardRepository is a mock implementation of repository.CardRepository
type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) Insert(ctx context.Context, card models.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockCardRepository) Get(ctx context.Context, id, ownerID uuid.UUID) (*models.Card, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Card), args.Error(1)
}

func (m *MockCardRepository) DueCards(ctx context.Context, ownerID uuid.UUID, now time.Time, deckID string, limit int) ([]models.Card, error) {
	args := m.Called(ctx, ownerID, now, deckID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Card), args.Error(1)
}

func (m *MockCardRepository) CountDue(ctx context.Context, ownerID uuid.UUID, now time.Time, deckID string) (int, error) {
	args := m.Called(ctx, ownerID, now, deckID)
	return args.Int(0), args.Error(1)
}

func (m *MockCardRepository) CommitReview(ctx context.Context, cardID, ownerID uuid.UUID, state models.SchedulingState) (bool, error) {
	args := m.Called(ctx, cardID, ownerID, state)
	return args.Bool(0), args.Error(1)
}

func (m *MockCardRepository) ListDecks(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]models.DeckSummary, error) {
	args := m.Called(ctx, ownerID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DeckSummary), args.Error(1)
}

func (m *MockCardRepository) InsertReviewLog(ctx context.Context, cardID uuid.UUID, quality int, reviewedAt time.Time) error {
	args := m.Called(ctx, cardID, quality, reviewedAt)
	return args.Error(0)
}

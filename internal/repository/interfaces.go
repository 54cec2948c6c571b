package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/studydeck/studydeck/internal/models"
)

// ErrNotFound is returned when a card does not exist for the given owner.
var ErrNotFound = errors.New("repository: not found")

// CardRepository handles card data access.
//
// DueCards and CountDue implement the due-card selection contract: cards with
// due_at <= now for the owner, ordered ascending by due_at so the most
// overdue material surfaces first. A zero limit means no limit, and an empty
// deckID disables the deck filter.
//
// CommitReview durably stores a new scheduling state. It never moves a
// card's due date backwards and is idempotent when retried with the same
// state, so it is safe to retry after an ambiguous failure. The applied
// result reports whether the write took effect; a stale commit that the
// guard skipped returns (false, nil) and callers must not treat the
// submitted state as persisted.
type CardRepository interface {
	Insert(ctx context.Context, card models.Card) error
	Get(ctx context.Context, id, ownerID uuid.UUID) (*models.Card, error)
	DueCards(ctx context.Context, ownerID uuid.UUID, now time.Time, deckID string, limit int) ([]models.Card, error)
	CountDue(ctx context.Context, ownerID uuid.UUID, now time.Time, deckID string) (int, error)
	CommitReview(ctx context.Context, cardID, ownerID uuid.UUID, state models.SchedulingState) (applied bool, err error)
	ListDecks(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]models.DeckSummary, error)
	InsertReviewLog(ctx context.Context, cardID uuid.UUID, quality int, reviewedAt time.Time) error
}

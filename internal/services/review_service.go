package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/studydeck/studydeck/internal/errors"
	"github.com/studydeck/studydeck/internal/jobs"
	"github.com/studydeck/studydeck/internal/logger"
	"github.com/studydeck/studydeck/internal/models"
	"github.com/studydeck/studydeck/internal/repository"
	"github.com/studydeck/studydeck/internal/scheduler"
	"github.com/studydeck/studydeck/internal/session"
)

// ReviewService handles the review flow: due-card selection, one-shot card
// reviews, and review session construction.
type ReviewService interface {
	DueCards(ctx context.Context, ownerID uuid.UUID, deckID string, limit int) ([]models.Card, error)
	CountDue(ctx context.Context, ownerID uuid.UUID, deckID string) (int, error)
	ReviewCard(ctx context.Context, cardID, ownerID uuid.UUID, quality int) (*models.Card, error)
	NewSession(opts ...session.Option) *session.Session
}

type reviewService struct {
	cards       repository.CardRepository
	queue       jobs.JobQueue
	now         func() time.Time
	sessionOpts []session.Option
}

// NewReviewService creates a new ReviewService. Any session options given
// here become defaults for sessions built with NewSession.
func NewReviewService(cards repository.CardRepository, queue jobs.JobQueue, sessionOpts ...session.Option) ReviewService {
	return &reviewService{cards: cards, queue: queue, now: time.Now, sessionOpts: sessionOpts}
}

func (s *reviewService) DueCards(ctx context.Context, ownerID uuid.UUID, deckID string, limit int) ([]models.Card, error) {
	log := logger.FromContext(ctx)

	cards, err := s.cards.DueCards(ctx, ownerID, s.now(), deckID, limit)
	if err != nil {
		log.Error("failed to fetch due cards: %v", err)
		return nil, apperrors.NewUnavailableError(err)
	}
	log.Debug("found %d due cards", len(cards))
	return cards, nil
}

func (s *reviewService) CountDue(ctx context.Context, ownerID uuid.UUID, deckID string) (int, error) {
	log := logger.FromContext(ctx)

	count, err := s.cards.CountDue(ctx, ownerID, s.now(), deckID)
	if err != nil {
		log.Error("failed to count due cards: %v", err)
		return 0, apperrors.NewUnavailableError(err)
	}
	return count, nil
}

// ReviewCard applies a single rating to a card: compute the next scheduling
// state and commit it. The review log entry is recorded asynchronously and
// never fails the review.
func (s *reviewService) ReviewCard(ctx context.Context, cardID, ownerID uuid.UUID, quality int) (*models.Card, error) {
	log := logger.FromContext(ctx)
	log.Debug("reviewing card: card_id=%s, quality=%d", cardID, quality)

	card, err := s.cards.Get(ctx, cardID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("card", cardID)
		}
		log.Error("failed to get card: %v", err)
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	next, err := scheduler.Next(card.Scheduling(), quality, now)
	if err != nil {
		if errors.Is(err, scheduler.ErrInvalidQuality) {
			return nil, apperrors.NewValidationError("quality", "must be between 0 and 5")
		}
		log.Error("scheduling state out of domain for card %s: %v", cardID, err)
		return nil, apperrors.NewInternalError(err)
	}

	applied, err := s.cards.CommitReview(ctx, cardID, ownerID, next)
	if err != nil {
		log.Error("failed to commit review: %v", err)
		return nil, apperrors.NewUnavailableError(err)
	}
	if !applied {
		// The store held a later schedule, so the rating changed nothing.
		// Report the persisted state and record no history entry.
		log.Warn("review skipped for card %s: stored schedule is later", cardID)
		return card, nil
	}

	log.Debug("review committed, new interval=%d days, ease_factor=%.2f", next.IntervalDays, next.EaseFactor)

	if err := s.queue.EnqueueReviewLog(cardID, quality, now); err != nil {
		// The scheduling commit is durable; a dropped log entry is acceptable.
		log.Warn("failed to enqueue review log: %v", err)
	}

	card.ApplyScheduling(next)
	return card, nil
}

// NewSession constructs a review session backed by this service's card store.
// Applied ratings feed the review history through the job queue, with the
// same best-effort policy as ReviewCard. Caller options override the service
// defaults.
func (s *reviewService) NewSession(opts ...session.Option) *session.Session {
	base := []session.Option{
		session.WithRatingObserver(func(cardID uuid.UUID, quality int, ratedAt time.Time) {
			if err := s.queue.EnqueueReviewLog(cardID, quality, ratedAt); err != nil {
				logger.Default().Warn("failed to enqueue review log: %v", err)
			}
		}),
	}
	base = append(base, s.sessionOpts...)
	return session.New(s.cards, s.cards, append(base, opts...)...)
}

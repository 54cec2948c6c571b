package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/studydeck/studydeck/internal/repository"
)

// ReviewLogJob appends one review event to the history log.
type ReviewLogJob struct {
	Cards      repository.CardRepository
	CardID     uuid.UUID
	Quality    int
	ReviewedAt time.Time
}

func (j *ReviewLogJob) Name() string {
	return "review-log"
}

func (j *ReviewLogJob) Run(ctx context.Context) error {
	return j.Cards.InsertReviewLog(ctx, j.CardID, j.Quality, j.ReviewedAt)
}

package jobs

import (
	"time"

	"github.com/google/uuid"
	"github.com/studydeck/studydeck/internal/repository"
	"github.com/studydeck/studydeck/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	pool  *worker.Pool
	cards repository.CardRepository
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(pool *worker.Pool, cards repository.CardRepository) JobQueue {
	return &WorkerQueue{pool: pool, cards: cards}
}

func (q *WorkerQueue) EnqueueReviewLog(cardID uuid.UUID, quality int, reviewedAt time.Time) error {
	return q.pool.Submit(&worker.ReviewLogJob{
		Cards:      q.cards,
		CardID:     cardID,
		Quality:    quality,
		ReviewedAt: reviewedAt,
	})
}

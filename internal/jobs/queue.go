package jobs

import (
	"time"

	"github.com/google/uuid"
)

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueReviewLog(cardID uuid.UUID, quality int, reviewedAt time.Time) error
}

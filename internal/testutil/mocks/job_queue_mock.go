package mocks

import (
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueReviewLog(cardID uuid.UUID, quality int, reviewedAt time.Time) error {
	args := m.Called(cardID, quality, reviewedAt)
	return args.Error(0)
}

package scheduler

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/studydeck/studydeck/internal/models"
)

const (
	// MinEaseFactor is the SM-2 floor; a card never becomes un-schedulable.
	MinEaseFactor = 1.3
	// InitialEaseFactor is assigned to newly created cards.
	InitialEaseFactor = 2.5

	firstInterval  = 1
	secondInterval = 6
)

// Rating buckets surfaced by the default rating UI. The raw 0..5 scale is
// accepted everywhere; 2 and 4 are reachable only through direct callers.
const (
	QualityAgain = 0
	QualityHard  = 1
	QualityGood  = 3
	QualityEasy  = 5
)

var (
	ErrInvalidQuality = errors.New("scheduler: quality out of range [0,5]")
	ErrInvalidState   = errors.New("scheduler: scheduling state out of domain")
)

// NewState returns the scheduling state of a freshly authored card:
// ease 2.5, no repetitions, immediately due.
func NewState(now time.Time) models.SchedulingState {
	return models.SchedulingState{
		EaseFactor:   InitialEaseFactor,
		IntervalDays: 0,
		Repetitions:  0,
		DueAt:        now,
	}
}

// Next computes the scheduling state after a review with the given quality,
// using the SM-2 variant the rest of the system is built around.
//
// A quality outside [0,5] is a caller bug and is rejected rather than
// clamped. The function has no side effects and is safe for concurrent use.
func Next(state models.SchedulingState, quality int, now time.Time) (models.SchedulingState, error) {
	if quality < 0 || quality > 5 {
		return models.SchedulingState{}, fmt.Errorf("%w: got %d", ErrInvalidQuality, quality)
	}
	if state.EaseFactor < MinEaseFactor {
		return models.SchedulingState{}, fmt.Errorf("%w: ease factor %.3f below %.1f", ErrInvalidState, state.EaseFactor, MinEaseFactor)
	}
	if state.IntervalDays < 0 {
		return models.SchedulingState{}, fmt.Errorf("%w: negative interval %d", ErrInvalidState, state.IntervalDays)
	}
	if state.Repetitions < 0 {
		return models.SchedulingState{}, fmt.Errorf("%w: negative repetitions %d", ErrInvalidState, state.Repetitions)
	}

	q := float64(quality)
	ef := state.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}

	next := models.SchedulingState{EaseFactor: ef}
	if quality < 3 {
		// Failed recall: back to the learning regime regardless of history.
		next.Repetitions = 0
		next.IntervalDays = firstInterval
	} else {
		next.Repetitions = state.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.IntervalDays = firstInterval
		case 2:
			next.IntervalDays = secondInterval
		default:
			// Growth uses the updated ease factor.
			next.IntervalDays = int(math.Round(float64(state.IntervalDays) * ef))
		}
	}
	if next.IntervalDays < firstInterval {
		next.IntervalDays = firstInterval
	}
	next.DueAt = now.AddDate(0, 0, next.IntervalDays)
	return next, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Card is a single question/answer pair owned by one learner.
// Front and back are opaque to the scheduling layer.
type Card struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	DeckID    string    `json:"deck_id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	SchedulingState
	CreatedAt time.Time `json:"created_at"`
}

// SchedulingState is the part of a card the review flow mutates.
// Invariants: EaseFactor >= 1.3 always; IntervalDays >= 1 once Repetitions > 0;
// DueAt never moves backwards across commits.
type SchedulingState struct {
	EaseFactor   float64   `json:"ease_factor"`
	IntervalDays int       `json:"interval_days"`
	Repetitions  int       `json:"repetitions"`
	DueAt        time.Time `json:"due_at"`
}

// Scheduling returns the card's current scheduling state.
func (c Card) Scheduling() SchedulingState {
	return c.SchedulingState
}

// ApplyScheduling replaces the card's scheduling state.
func (c *Card) ApplyScheduling(s SchedulingState) {
	c.SchedulingState = s
}

// DeckSummary aggregates per-deck counts for a learner.
type DeckSummary struct {
	DeckID    string `json:"deck_id"`
	CardCount int    `json:"card_count"`
	DueCount  int    `json:"due_count"`
}

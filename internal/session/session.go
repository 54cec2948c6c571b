// Package session implements the review session state machine: it presents a
// batch of due cards one at a time through flip/rate/advance cycles, invoking
// the scheduler and a persistence commit per rating.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/studydeck/studydeck/internal/logger"
	"github.com/studydeck/studydeck/internal/models"
	"github.com/studydeck/studydeck/internal/scheduler"
)

// State identifies where the session is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePresenting
	StateFlipped
	StateSubmitting
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePresenting:
		return "presenting"
	case StateFlipped:
		return "flipped"
	case StateSubmitting:
		return "submitting"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	ErrAlreadyStarted     = errors.New("session: already started")
	ErrNotPresenting      = errors.New("session: no card presented")
	ErrNotFlipped         = errors.New("session: answer not revealed")
	ErrSubmissionInFlight = errors.New("session: rating already submitting")
	ErrFinished           = errors.New("session: already finished")
)

// DueCardSource provides the batch of due cards captured at session start.
type DueCardSource interface {
	DueCards(ctx context.Context, ownerID uuid.UUID, now time.Time, deckID string, limit int) ([]models.Card, error)
}

// ReviewCommitter durably stores a card's new scheduling state. It must be
// idempotent when retried with the same state. A commit the store skipped,
// such as one racing a later schedule, returns (false, nil).
type ReviewCommitter interface {
	CommitReview(ctx context.Context, cardID, ownerID uuid.UUID, state models.SchedulingState) (applied bool, err error)
}

// RatingObserver is notified after each rating whose commit was applied.
type RatingObserver func(cardID uuid.UUID, quality int, ratedAt time.Time)

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the session's wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithCommitTimeout bounds each commit call. A commit exceeding the bound is
// treated as failed for session-flow purposes even if the store eventually
// applies it; the committer's idempotency makes the subsequent retry safe.
func WithCommitTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.commitTimeout = d
	}
}

// WithBatchLimit caps the number of cards fetched at start. Zero means all
// due cards.
func WithBatchLimit(n int) Option {
	return func(s *Session) {
		s.batchLimit = n
	}
}

// WithRatingObserver registers a callback invoked after every applied
// rating, outside the session lock. Skipped and failed commits are not
// reported.
func WithRatingObserver(fn RatingObserver) Option {
	return func(s *Session) {
		s.observer = fn
	}
}

// Session drives one sitting over a fixed batch of due cards. It is held
// only in memory; abandoning it loses no committed state. A single logical
// caller drives the machine, but the internal lock makes the in-flight
// submission guard hold even against a double-submitting UI.
type Session struct {
	source        DueCardSource
	committer     ReviewCommitter
	observer      RatingObserver
	now           func() time.Time
	commitTimeout time.Duration
	batchLimit    int
	log           *logger.Logger

	mu       sync.Mutex
	state    State
	ownerID  uuid.UUID
	deckID   string
	cards    []models.Card
	cursor   int
	reviewed int
	lastErr  error
}

// New creates an idle session over the given source and committer.
func New(source DueCardSource, committer ReviewCommitter, opts ...Option) *Session {
	s := &Session{
		source:        source,
		committer:     committer,
		now:           time.Now,
		commitTimeout: 10 * time.Second,
		log:           logger.Default().WithPrefix("session"),
		state:         StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start fetches the due-card batch and moves to Presenting, or directly to
// Complete when nothing is due. A fetch failure is terminal: construct a new
// session to retry.
func (s *Session) Start(ctx context.Context, ownerID uuid.UUID, deckID string) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateLoading
	s.ownerID = ownerID
	s.deckID = deckID
	now := s.now()
	s.mu.Unlock()

	cards, err := s.source.DueCards(ctx, ownerID, now, deckID, s.batchLimit)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.Error("failed to load due cards: %v", err)
		s.state = StateFailed
		s.lastErr = err
		return err
	}
	s.cards = cards
	if len(cards) == 0 {
		// Vacuous completion: nothing due is a first-class outcome.
		s.log.Debug("no cards due, session complete")
		s.state = StateComplete
		return nil
	}
	s.log.Debug("session started with %d cards", len(cards))
	s.state = StatePresenting
	return nil
}

// Flip toggles between the front and back of the current card. No I/O.
func (s *Session) Flip() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StatePresenting:
		s.state = StateFlipped
		return nil
	case StateFlipped:
		s.state = StatePresenting
		return nil
	case StateSubmitting:
		return ErrSubmissionInFlight
	case StateComplete, StateFailed:
		return ErrFinished
	default:
		return ErrNotPresenting
	}
}

// Rate submits a quality rating for the current (flipped) card: it computes
// the next scheduling state and commits it, then advances to the next card
// or completes the session.
//
// At most one submission is in flight per card: a Rate arriving while the
// previous one is still committing returns ErrSubmissionInFlight without
// touching the scheduler or the store. On commit failure the rating is not
// applied and the card stays flipped so it can be rated again.
func (s *Session) Rate(ctx context.Context, quality int) error {
	s.mu.Lock()
	switch s.state {
	case StateFlipped:
	case StateSubmitting:
		s.mu.Unlock()
		return ErrSubmissionInFlight
	case StatePresenting:
		s.mu.Unlock()
		return ErrNotFlipped
	case StateComplete, StateFailed:
		s.mu.Unlock()
		return ErrFinished
	default:
		s.mu.Unlock()
		return ErrNotPresenting
	}

	card := s.cards[s.cursor]
	now := s.now()
	next, err := scheduler.Next(card.Scheduling(), quality, now)
	if err != nil {
		// Contract violation; the card stays flipped.
		s.mu.Unlock()
		return err
	}
	s.state = StateSubmitting
	s.mu.Unlock()

	// The commit is shielded from caller cancellation so an abandoning
	// learner's last rating is not silently lost, but still bounded.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.commitTimeout)
	defer cancel()
	applied, commitErr := s.committer.CommitReview(commitCtx, card.ID, card.OwnerID, next)

	if commitErr == nil && applied && s.observer != nil {
		s.observer(card.ID, quality, now)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if commitErr != nil {
		s.log.Warn("commit failed for card %s: %v", card.ID, commitErr)
		s.state = StateFlipped
		s.lastErr = commitErr
		return commitErr
	}

	if applied {
		s.cards[s.cursor].ApplyScheduling(next)
	} else {
		// The store held a later schedule; the local copy stays as loaded.
		s.log.Warn("commit skipped for card %s, keeping stored schedule", card.ID)
	}
	s.reviewed++
	s.lastErr = nil
	if s.cursor == len(s.cards)-1 {
		s.log.Debug("session complete, %d cards reviewed", s.reviewed)
		s.state = StateComplete
	} else {
		s.cursor++
		s.state = StatePresenting
	}
	return nil
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns a copy of the card being presented, or false when the
// session is not presenting one.
func (s *Session) Current() (models.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StatePresenting, StateFlipped, StateSubmitting:
		return s.cards[s.cursor], true
	default:
		return models.Card{}, false
	}
}

// Progress reports cards reviewed so far and the fixed batch size.
func (s *Session) Progress() (reviewed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reviewed, len(s.cards)
}

// Err returns the error from the last failed load or commit, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

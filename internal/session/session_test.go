package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studydeck/studydeck/internal/models"
	"github.com/studydeck/studydeck/internal/scheduler"
	"github.com/studydeck/studydeck/internal/session"
)

var (
	testNow   = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	testOwner = uuid.MustParse("30f0f1b2-9d3e-4a5f-8c6d-7e8f9a0b1c2d")
)

type fakeSource struct {
	cards    []models.Card
	err      error
	gotLimit int
}

func (f *fakeSource) DueCards(ctx context.Context, ownerID uuid.UUID, now time.Time, deckID string, limit int) ([]models.Card, error) {
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.cards, nil
}

type commitCall struct {
	cardID uuid.UUID
	state  models.SchedulingState
}

type fakeCommitter struct {
	mu       sync.Mutex
	commits  []commitCall
	failures int           // number of leading calls to fail
	skips    int           // number of leading calls to skip (applied=false)
	entered  chan struct{} // signaled when a commit begins, if non-nil
	release  chan struct{} // commit blocks on this, if non-nil
}

func (f *fakeCommitter) CommitReview(ctx context.Context, cardID, ownerID uuid.UUID, state models.SchedulingState) (bool, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return false, errors.New("commit failed")
	}
	if f.skips > 0 {
		f.skips--
		return false, nil
	}
	f.commits = append(f.commits, commitCall{cardID: cardID, state: state})
	return true, nil
}

func (f *fakeCommitter) calls() []commitCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]commitCall(nil), f.commits...)
}

func dueCard(hoursOverdue int) models.Card {
	return models.Card{
		ID:      uuid.New(),
		OwnerID: testOwner,
		Front:   "front",
		Back:    "back",
		SchedulingState: models.SchedulingState{
			EaseFactor:   2.5,
			IntervalDays: 0,
			Repetitions:  0,
			DueAt:        testNow.Add(-time.Duration(hoursOverdue) * time.Hour),
		},
	}
}

func newSession(src *fakeSource, com *fakeCommitter, opts ...session.Option) *session.Session {
	opts = append([]session.Option{session.WithClock(func() time.Time { return testNow })}, opts...)
	return session.New(src, com, opts...)
}

func TestStart_PresentsMostOverdueFirst(t *testing.T) {
	// Fetched order is due-date ascending; the session must preserve it.
	c1, c2, c3 := dueCard(72), dueCard(48), dueCard(24)
	src := &fakeSource{cards: []models.Card{c1, c2, c3}}
	com := &fakeCommitter{}
	s := newSession(src, com)

	require.NoError(t, s.Start(context.Background(), testOwner, ""))
	require.Equal(t, session.StatePresenting, s.State())

	for _, want := range []uuid.UUID{c1.ID, c2.ID, c3.ID} {
		cur, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, want, cur.ID)
		require.NoError(t, s.Flip())
		require.NoError(t, s.Rate(context.Background(), scheduler.QualityGood))
	}

	assert.Equal(t, session.StateComplete, s.State())
	calls := com.calls()
	require.Len(t, calls, 3)
	assert.Equal(t, c1.ID, calls[0].cardID)
	assert.Equal(t, c2.ID, calls[1].cardID)
	assert.Equal(t, c3.ID, calls[2].cardID)
}

func TestStart_NothingDueCompletesImmediately(t *testing.T) {
	src := &fakeSource{}
	s := newSession(src, &fakeCommitter{})

	require.NoError(t, s.Start(context.Background(), testOwner, ""))

	assert.Equal(t, session.StateComplete, s.State())
	_, ok := s.Current()
	assert.False(t, ok)
	reviewed, total := s.Progress()
	assert.Zero(t, reviewed)
	assert.Zero(t, total)
}

func TestStart_FetchFailureIsTerminal(t *testing.T) {
	fetchErr := errors.New("store unreachable")
	src := &fakeSource{err: fetchErr}
	s := newSession(src, &fakeCommitter{})

	err := s.Start(context.Background(), testOwner, "")
	assert.ErrorIs(t, err, fetchErr)
	assert.Equal(t, session.StateFailed, s.State())
	assert.ErrorIs(t, s.Err(), fetchErr)

	assert.ErrorIs(t, s.Rate(context.Background(), 5), session.ErrFinished)
	assert.ErrorIs(t, s.Flip(), session.ErrFinished)
}

func TestStart_Twice(t *testing.T) {
	src := &fakeSource{cards: []models.Card{dueCard(1)}}
	s := newSession(src, &fakeCommitter{})

	require.NoError(t, s.Start(context.Background(), testOwner, ""))
	assert.ErrorIs(t, s.Start(context.Background(), testOwner, ""), session.ErrAlreadyStarted)
}

func TestStart_BatchLimitPassedToSource(t *testing.T) {
	src := &fakeSource{cards: []models.Card{dueCard(1)}}
	s := newSession(src, &fakeCommitter{}, session.WithBatchLimit(20))

	require.NoError(t, s.Start(context.Background(), testOwner, ""))
	assert.Equal(t, 20, src.gotLimit)
}

func TestFlip_Toggles(t *testing.T) {
	src := &fakeSource{cards: []models.Card{dueCard(1)}}
	s := newSession(src, &fakeCommitter{})
	require.NoError(t, s.Start(context.Background(), testOwner, ""))

	require.NoError(t, s.Flip())
	assert.Equal(t, session.StateFlipped, s.State())
	require.NoError(t, s.Flip())
	assert.Equal(t, session.StatePresenting, s.State())
}

func TestRate_RequiresFlip(t *testing.T) {
	src := &fakeSource{cards: []models.Card{dueCard(1)}}
	com := &fakeCommitter{}
	s := newSession(src, com)
	require.NoError(t, s.Start(context.Background(), testOwner, ""))

	assert.ErrorIs(t, s.Rate(context.Background(), 5), session.ErrNotFlipped)
	assert.Empty(t, com.calls())
}

func TestRate_InvalidQualityRejected(t *testing.T) {
	src := &fakeSource{cards: []models.Card{dueCard(1)}}
	com := &fakeCommitter{}
	s := newSession(src, com)
	require.NoError(t, s.Start(context.Background(), testOwner, ""))
	require.NoError(t, s.Flip())

	assert.ErrorIs(t, s.Rate(context.Background(), 6), scheduler.ErrInvalidQuality)
	assert.Equal(t, session.StateFlipped, s.State(), "card stays flipped after a rejected rating")
	assert.Empty(t, com.calls())
}

func TestRate_DoubleSubmitGuard(t *testing.T) {
	src := &fakeSource{cards: []models.Card{dueCard(1)}}
	com := &fakeCommitter{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := newSession(src, com)
	require.NoError(t, s.Start(context.Background(), testOwner, ""))
	require.NoError(t, s.Flip())

	first := make(chan error, 1)
	go func() {
		first <- s.Rate(context.Background(), scheduler.QualityEasy)
	}()

	// Wait for the first commit to be in flight, then fire a second rating.
	<-com.entered
	assert.Equal(t, session.StateSubmitting, s.State())
	assert.ErrorIs(t, s.Rate(context.Background(), scheduler.QualityEasy), session.ErrSubmissionInFlight)

	close(com.release)
	require.NoError(t, <-first)

	assert.Len(t, com.calls(), 1, "exactly one commit must reach the store")
	assert.Equal(t, session.StateComplete, s.State())
}

func TestRate_CommitFailureStaysOnCard(t *testing.T) {
	card := dueCard(1)
	src := &fakeSource{cards: []models.Card{card, dueCard(0)}}
	com := &fakeCommitter{failures: 1}
	s := newSession(src, com)
	require.NoError(t, s.Start(context.Background(), testOwner, ""))
	require.NoError(t, s.Flip())

	err := s.Rate(context.Background(), scheduler.QualityGood)
	require.Error(t, err)

	// The failed rating is not applied: same card, still flipped, retryable.
	assert.Equal(t, session.StateFlipped, s.State())
	assert.Error(t, s.Err())
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, card.ID, cur.ID)
	reviewed, _ := s.Progress()
	assert.Zero(t, reviewed)

	// Retrying the same rating succeeds and advances.
	require.NoError(t, s.Rate(context.Background(), scheduler.QualityGood))
	assert.Equal(t, session.StatePresenting, s.State())
	assert.NoError(t, s.Err())
	reviewed, total := s.Progress()
	assert.Equal(t, 1, reviewed)
	assert.Equal(t, 2, total)
}

func TestRate_CommitsSchedulerOutput(t *testing.T) {
	card := dueCard(1)
	src := &fakeSource{cards: []models.Card{card}}
	com := &fakeCommitter{}
	s := newSession(src, com)
	require.NoError(t, s.Start(context.Background(), testOwner, ""))
	require.NoError(t, s.Flip())
	require.NoError(t, s.Rate(context.Background(), scheduler.QualityGood))

	want, err := scheduler.Next(card.Scheduling(), scheduler.QualityGood, testNow)
	require.NoError(t, err)
	calls := com.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, want, calls[0].state)
	assert.True(t, calls[0].state.DueAt.After(testNow), "committed due date must be in the future")
}

func TestRate_NotifiesObserverPerAppliedRating(t *testing.T) {
	c1, c2 := dueCard(2), dueCard(1)
	src := &fakeSource{cards: []models.Card{c1, c2}}
	com := &fakeCommitter{}

	type observed struct {
		cardID  uuid.UUID
		quality int
		ratedAt time.Time
	}
	var seen []observed
	s := newSession(src, com, session.WithRatingObserver(func(cardID uuid.UUID, quality int, ratedAt time.Time) {
		seen = append(seen, observed{cardID, quality, ratedAt})
	}))
	require.NoError(t, s.Start(context.Background(), testOwner, ""))

	require.NoError(t, s.Flip())
	require.NoError(t, s.Rate(context.Background(), scheduler.QualityGood))
	require.NoError(t, s.Flip())
	require.NoError(t, s.Rate(context.Background(), scheduler.QualityAgain))

	require.Len(t, seen, 2)
	assert.Equal(t, observed{c1.ID, scheduler.QualityGood, testNow}, seen[0])
	assert.Equal(t, observed{c2.ID, scheduler.QualityAgain, testNow}, seen[1])
}

func TestRate_FailedCommitNotObserved(t *testing.T) {
	src := &fakeSource{cards: []models.Card{dueCard(1)}}
	com := &fakeCommitter{failures: 1}

	notified := 0
	s := newSession(src, com, session.WithRatingObserver(func(uuid.UUID, int, time.Time) {
		notified++
	}))
	require.NoError(t, s.Start(context.Background(), testOwner, ""))
	require.NoError(t, s.Flip())

	require.Error(t, s.Rate(context.Background(), scheduler.QualityGood))
	assert.Zero(t, notified)

	require.NoError(t, s.Rate(context.Background(), scheduler.QualityGood))
	assert.Equal(t, 1, notified)
}

func TestRate_SkippedCommitKeepsLoadedState(t *testing.T) {
	card := dueCard(1)
	src := &fakeSource{cards: []models.Card{card, dueCard(0)}}
	com := &fakeCommitter{skips: 1}

	notified := 0
	s := newSession(src, com, session.WithRatingObserver(func(uuid.UUID, int, time.Time) {
		notified++
	}))
	require.NoError(t, s.Start(context.Background(), testOwner, ""))
	require.NoError(t, s.Flip())

	// The store declined the write, so the session advances without
	// pretending the rating changed the schedule.
	require.NoError(t, s.Rate(context.Background(), scheduler.QualityGood))
	assert.Equal(t, session.StatePresenting, s.State())
	assert.Zero(t, notified)
	assert.Empty(t, com.calls())
}

func TestRate_AfterComplete(t *testing.T) {
	src := &fakeSource{cards: []models.Card{dueCard(1)}}
	s := newSession(src, &fakeCommitter{})
	require.NoError(t, s.Start(context.Background(), testOwner, ""))
	require.NoError(t, s.Flip())
	require.NoError(t, s.Rate(context.Background(), scheduler.QualityEasy))
	require.Equal(t, session.StateComplete, s.State())

	assert.ErrorIs(t, s.Rate(context.Background(), scheduler.QualityEasy), session.ErrFinished)
}

// ctxCheckingCommitter fails if the commit context is already cancelled.
type ctxCheckingCommitter struct {
	committed int
}

func (c *ctxCheckingCommitter) CommitReview(ctx context.Context, cardID, ownerID uuid.UUID, state models.SchedulingState) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.committed++
	return true, nil
}

func TestRate_CommitSurvivesCallerCancellation(t *testing.T) {
	src := &fakeSource{cards: []models.Card{dueCard(1)}}
	com := &ctxCheckingCommitter{}
	s := session.New(src, com, session.WithClock(func() time.Time { return testNow }))
	require.NoError(t, s.Start(context.Background(), testOwner, ""))
	require.NoError(t, s.Flip())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The rating in flight must still commit despite the cancelled caller.
	require.NoError(t, s.Rate(ctx, scheduler.QualityEasy))
	assert.Equal(t, 1, com.committed)
}

package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	ran *atomic.Int32
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.ran.Add(1)
	return nil
}

func TestPool_RunsSubmittedJobs(t *testing.T) {
	p := NewPool(2, 8)
	p.Start(context.Background())

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Submit(&countingJob{ran: &ran}))
	}

	assert.Eventually(t, func() bool { return ran.Load() == 5 }, time.Second, 10*time.Millisecond)
	p.Stop()
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := NewPool(1, 1)
	p.Start(context.Background())
	p.Stop()

	var ran atomic.Int32
	err := p.Submit(&countingJob{ran: &ran})
	assert.ErrorIs(t, err, ErrPoolStopped)
	assert.Zero(t, ran.Load())
}

func TestPool_StopTwice(t *testing.T) {
	p := NewPool(1, 1)
	p.Start(context.Background())
	p.Stop()
	assert.NotPanics(t, p.Stop)
}

func TestPool_SubmitFullQueue(t *testing.T) {
	// Unstarted pool: nothing drains the queue, so capacity fills up.
	p := NewPool(1, 1)

	var ran atomic.Int32
	require.NoError(t, p.Submit(&countingJob{ran: &ran}))
	assert.ErrorIs(t, p.Submit(&countingJob{ran: &ran}), ErrQueueFull)

	p.Start(context.Background())
	assert.Eventually(t, func() bool { return ran.Load() == 1 }, time.Second, 10*time.Millisecond)
	p.Stop()
}

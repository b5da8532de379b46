package ingest

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsJobsAndDrains(t *testing.T) {
	pool := NewPool(context.Background(), 3, 16, NewJobManager(), nil)
	var done atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(Job{
			ID:  string(rune('a' + i)),
			Run: func(ctx context.Context) { done.Add(1) },
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))
	assert.Equal(t, int32(10), done.Load())
	assert.ErrorIs(t, pool.Submit(Job{ID: "late", Run: func(context.Context) {}}), ErrPoolClosed)
}

func TestPoolQueueFull(t *testing.T) {
	jobs := NewJobManager()
	pool := NewPool(context.Background(), 1, 1, jobs, nil)
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, pool.Submit(Job{ID: "running", Run: func(context.Context) {
		close(started)
		<-release
	}}))
	<-started
	require.NoError(t, pool.Submit(Job{ID: "queued", Run: func(context.Context) {}}))

	err := pool.Submit(Job{ID: "overflow", Run: func(context.Context) {}})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.False(t, jobs.Cancel("overflow"))

	close(release)
	require.NoError(t, pool.Shutdown(context.Background()))
}

func TestPoolCancelQueuedJob(t *testing.T) {
	jobs := NewJobManager()
	pool := NewPool(context.Background(), 1, 4, jobs, nil)
	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.Submit(Job{ID: "blocker", Run: func(context.Context) {
		close(started)
		<-release
	}}))
	<-started

	var sawCancel atomic.Bool
	require.NoError(t, pool.Submit(Job{ID: "victim", Run: func(ctx context.Context) {
		sawCancel.Store(ctx.Err() != nil)
	}}))
	require.True(t, jobs.Cancel("victim"))

	close(release)
	require.NoError(t, pool.Shutdown(context.Background()))
	assert.True(t, sawCancel.Load())
}

func TestPoolShutdownDeadlineCancelsJobs(t *testing.T) {
	pool := NewPool(context.Background(), 1, 1, NewJobManager(), nil)
	started := make(chan struct{})
	require.NoError(t, pool.Submit(Job{ID: "slow", Run: func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := pool.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerQueue_ProcessesAll(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	q := NewWorkerQueue(func(_ context.Context, job Job) error {
		mu.Lock()
		seen[job.Path]++
		mu.Unlock()
		return nil
	}, quietLogger(), WithWorkers(3), WithQueueSize(2))

	paths := []string{"a.pdf", "b.png", "c.txt", "d.docx", "e.xlsx"}
	for _, p := range paths {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: p}))
	}
	q.Shutdown(context.Background())

	for _, p := range paths {
		assert.Equal(t, 1, seen[p], p)
	}
}

func TestWorkerQueue_DeduplicatesPendingPaths(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	q := NewWorkerQueue(func(_ context.Context, job Job) error {
		if job.Path == "block" {
			<-release
		}
		calls.Add(1)
		return nil
	}, quietLogger(), WithWorkers(1))

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "block"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "id.pdf"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "id.pdf"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "id.pdf", Force: true}))
	close(release)
	q.Shutdown(context.Background())

	assert.Equal(t, int32(3), calls.Load())
}

func TestWorkerQueue_ErrorsAndPanicsDoNotStopWorkers(t *testing.T) {
	var ok atomic.Int32
	q := NewWorkerQueue(func(_ context.Context, job Job) error {
		switch job.Path {
		case "err":
			return errors.New("boom")
		case "panic":
			panic("kaboom")
		}
		ok.Add(1)
		return nil
	}, quietLogger(), WithWorkers(1))

	for _, p := range []string{"err", "panic", "fine"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: p}))
	}
	q.Shutdown(context.Background())
	assert.Equal(t, int32(1), ok.Load())
}

func TestWorkerQueue_TimeoutReachesHandler(t *testing.T) {
	got := make(chan error, 1)
	q := NewWorkerQueue(func(ctx context.Context, _ Job) error {
		<-ctx.Done()
		got <- ctx.Err()
		return ctx.Err()
	}, quietLogger(), WithWorkers(1), WithProcessTimeout(20*time.Millisecond))

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "slow.pdf"}))
	q.Shutdown(context.Background())
	assert.ErrorIs(t, <-got, context.DeadlineExceeded)
}

func TestWorkerQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewWorkerQueue(func(context.Context, Job) error { return nil }, quietLogger())
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{Path: "late.pdf"}), ErrQueueClosed)
}

func TestJobWaited(t *testing.T) {
	j := NewJob("/in/a.pdf")
	assert.NotEmpty(t, j.TraceID)
	assert.Equal(t, time.Duration(0), j.Waited(j.SubmittedAt.Add(-time.Second)))
	assert.Equal(t, 2*time.Second, j.Waited(j.SubmittedAt.Add(2*time.Second)))
	assert.Equal(t, time.Duration(0), Job{}.Waited(time.Now()))
}

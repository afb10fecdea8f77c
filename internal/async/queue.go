// Package async runs file jobs on a fixed pool of workers.
package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is one file waiting to be processed.
type Job struct {
	Path        string
	Force       bool // bypass pending-path dedupe
	SubmittedAt time.Time
	TraceID     string
}

// NewJob stamps a job for path with the current time and a fresh trace id.
func NewJob(path string) Job {
	return Job{Path: path, SubmittedAt: time.Now(), TraceID: uuid.NewString()}
}

// Waited is how long the job sat in the queue before at.
func (j Job) Waited(at time.Time) time.Duration {
	if j.SubmittedAt.IsZero() || at.Before(j.SubmittedAt) {
		return 0
	}
	return at.Sub(j.SubmittedAt)
}

// Queue accepts jobs until Shutdown.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Handler processes one job. The queue logs a returned error and moves on.
type Handler func(ctx context.Context, job Job) error

// Package jobs defines background work the API hands off to a worker queue,
// currently knowledge index rebuilds.
package jobs

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned by a JobStore for an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// ErrQueueClosed is returned when publishing to a stopped queue.
var ErrQueueClosed = errors.New("queue is closed")

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeRebuildIndex re-reads the knowledge corpus and republishes the index.
	JobTypeRebuildIndex JobType = "rebuild_index"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// Terminal reports whether no further transitions will happen.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// RebuildIndexJob asks a worker to rebuild the knowledge index.
type RebuildIndexJob struct {
	JobID string `json:"job_id"`

	// Source is the corpus location the rebuild reads from, for display.
	Source string `json:"source,omitempty"`

	// RequestedBy is the session or tool that asked for the rebuild.
	RequestedBy string `json:"requested_by,omitempty"`

	Status JobStatus `json:"status"`

	// Chunks is the size of the published index after a successful run.
	Chunks int `json:"chunks"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Error      string `json:"error,omitempty"`
	RetryCount int    `json:"retry_count"`
	MaxRetries int    `json:"max_retries"`
}

// Type returns JobTypeRebuildIndex.
func (j *RebuildIndexJob) Type() JobType {
	return JobTypeRebuildIndex
}

// Publisher enqueues jobs.
type Publisher interface {
	PublishRebuildIndex(ctx context.Context, job *RebuildIndexJob) error
	Close() error
}

// Consumer runs queued jobs through a handler until stopped.
type Consumer interface {
	// Start launches the workers and returns immediately.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A non-nil error marks the attempt failed and
// makes it eligible for retry.
type JobHandler func(ctx context.Context, job *RebuildIndexJob) error

// JobStore keeps job state so the API can report progress.
type JobStore interface {
	SaveJob(ctx context.Context, job *RebuildIndexJob) error
	GetJob(ctx context.Context, jobID string) (*RebuildIndexJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*RebuildIndexJob, error)
}

// JobFilter narrows ListJobs. Zero values match everything.
type JobFilter struct {
	Status JobStatus
	Limit  int
	Offset int
}

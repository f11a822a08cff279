// Package inmemory provides a channel-backed job queue and a map-backed job
// store for single-instance deployments and tests.
package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/taxease/internal/jobs"
)

const (
	defaultWorkers    = 1
	defaultMaxRetries = 2
	defaultBackoff    = time.Second
)

// Queue is an in-memory Publisher and Consumer backed by a buffered channel.
type Queue struct {
	jobChan   chan *jobs.RebuildIndexJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	log       zerolog.Logger
	closed    bool

	workers int
	backoff time.Duration
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithBackoff sets the base delay between retries. Attempt n waits n times
// the base.
func WithBackoff(d time.Duration) QueueOption {
	return func(q *Queue) {
		q.backoff = d
	}
}

// NewQueue creates a queue holding up to bufferSize pending jobs. store may
// be nil.
func NewQueue(bufferSize int, store jobs.JobStore, log zerolog.Logger, opts ...QueueOption) *Queue {
	q := &Queue{
		jobChan:   make(chan *jobs.RebuildIndexJob, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		log:       log,
		workers:   defaultWorkers,
		backoff:   defaultBackoff,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// PublishRebuildIndex fills in the id, status, timestamps and retry budget
// on job, records it and enqueues a copy.
func (q *Queue) PublishRebuildIndex(ctx context.Context, job *jobs.RebuildIndexJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return jobs.ErrQueueClosed
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = defaultMaxRetries
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("PublishRebuildIndex: saving job: %w", err)
		}
	}

	queued := *job
	select {
	case q.jobChan <- &queued:
		q.log.Debug().Str("job_id", job.JobID).Msg("Job enqueued")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return jobs.ErrQueueClosed
	}
}

// Start launches the workers. They run until ctx is done or Stop is called.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return jobs.ErrQueueClosed
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

func (q *Queue) processJob(ctx context.Context, job *jobs.RebuildIndexJob, handler jobs.JobHandler) {
	log := q.log.With().Str("job_id", job.JobID).Int("attempt", job.RetryCount+1).Logger()

	job.Status = jobs.JobStatusRunning
	now := time.Now().UTC()
	job.StartedAt = &now
	q.save(ctx, job)

	err := handler(ctx, job)

	completedAt := time.Now().UTC()
	job.CompletedAt = &completedAt

	switch {
	case err == nil:
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		log.Info().Int("chunks", job.Chunks).Dur("duration", completedAt.Sub(now)).Msg("Job completed")
	case job.RetryCount < job.MaxRetries:
		job.Error = err.Error()
		job.RetryCount++
		job.Status = jobs.JobStatusRetrying
		log.Warn().Err(err).Msg("Job failed, retrying")

		retry := *job
		time.AfterFunc(time.Duration(retry.RetryCount)*q.backoff, func() {
			retry.Status = jobs.JobStatusPending
			retry.StartedAt = nil
			retry.CompletedAt = nil
			if err := q.PublishRebuildIndex(ctx, &retry); err != nil {
				retry.Status = jobs.JobStatusFailed
				q.save(context.Background(), &retry)
			}
		})
	default:
		job.Error = err.Error()
		job.Status = jobs.JobStatusFailed
		log.Error().Err(err).Msg("Job failed")
	}

	q.save(ctx, job)
}

func (q *Queue) save(ctx context.Context, job *jobs.RebuildIndexJob) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		q.log.Warn().Err(err).Str("job_id", job.JobID).Msg("Failed to save job state")
	}
}

// Stop closes the queue and waits for in-flight jobs or ctx.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the queue without a deadline.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var (
	_ jobs.Publisher = (*Queue)(nil)
	_ jobs.Consumer  = (*Queue)(nil)
)

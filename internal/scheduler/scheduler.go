// Package scheduler implements a durable background job queue backed by
// the jobs table. Enqueue is fire-and-forget; a pool of workers claims
// due jobs, runs registered handlers, and applies the bounded retry
// policy.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trogers1052/ticker-watch/internal/config"
	"github.com/trogers1052/ticker-watch/internal/models"
)

// JobStore defines the persistence operations the scheduler needs
type JobStore interface {
	CreateJob(ctx context.Context, j *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ClaimDueJob(ctx context.Context) (*models.Job, error)
	ScheduleRetry(ctx context.Context, id string, runAt time.Time, lastErr string) error
	MarkJobSucceeded(ctx context.Context, id string, result json.RawMessage) error
	MarkJobFailed(ctx context.Context, id string, lastErr string) error
	RecoverStaleJobs(ctx context.Context) (int64, error)
}

// Publisher emits job lifecycle events after the job's outcome is recorded
type Publisher interface {
	PublishJobSucceeded(ctx context.Context, job *models.Job) error
}

// Notifier nudges remote workers that new work is available
type Notifier interface {
	Notify(ctx context.Context) error
}

// Result is the structured payload a handler returns on success.
type Result map[string]interface{}

// HandlerFunc executes one job. Returning an error wrapped with Retryable
// schedules a bounded retry; any other error fails the job immediately.
type HandlerFunc func(ctx context.Context, job *models.Job) (Result, error)

// RetryableError tags an error as a transient failure worth retrying.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Retryable wraps err so the scheduler schedules a retry instead of
// failing the job.
func Retryable(err error) error {
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err was tagged with Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Scheduler owns the handler registry and the worker pool.
type Scheduler struct {
	store     JobStore
	publisher Publisher
	notifier  Notifier
	cfg       config.SchedulerConfig
	handlers  map[string]HandlerFunc
	notify    chan struct{}
}

// New creates a Scheduler. All tunables come from cfg; the scheduler
// never reads the environment.
func New(store JobStore, cfg config.SchedulerConfig) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &Scheduler{
		store:    store,
		cfg:      cfg,
		handlers: make(map[string]HandlerFunc),
		notify:   make(chan struct{}, 1),
	}
}

// SetPublisher attaches the job event publisher.
func (s *Scheduler) SetPublisher(p Publisher) {
	s.publisher = p
}

// SetNotifier attaches the remote wake-up notifier.
func (s *Scheduler) SetNotifier(n Notifier) {
	s.notifier = n
}

// Register adds a handler for the named job kind
func (s *Scheduler) Register(name string, h HandlerFunc) {
	s.handlers[name] = h
}

// Enqueue inserts a pending job and returns its id without waiting for
// execution.
func (s *Scheduler) Enqueue(ctx context.Context, name string, stockID int64) (string, error) {
	if _, ok := s.handlers[name]; !ok {
		return "", fmt.Errorf("no handler registered for job %q", name)
	}

	job := &models.Job{
		ID:         uuid.NewString(),
		Name:       name,
		StockID:    stockID,
		Status:     models.JobPending,
		MaxRetries: s.cfg.MaxRetries,
		RunAt:      time.Now(),
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return "", err
	}

	s.Wake()
	if s.notifier != nil {
		// Best effort; workers poll anyway.
		_ = s.notifier.Notify(ctx)
	}
	return job.ID, nil
}

// Wake nudges idle workers to check for due jobs. Non-blocking.
func (s *Scheduler) Wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Recover re-queues jobs interrupted by a previous process
func (s *Scheduler) Recover(ctx context.Context) error {
	n, err := s.store.RecoverStaleJobs(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.Wake()
	}
	return nil
}

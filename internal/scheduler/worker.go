package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/trogers1052/ticker-watch/internal/models"
)

// Run starts the worker pool and blocks until ctx is cancelled and all
// workers have drained.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.workerLoop(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (s *Scheduler) workerLoop(ctx context.Context, id int) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		// Drain every due job before going back to sleep. Retries are
		// deferred via run_at, so a retrying job only shows up here once
		// its backoff has elapsed.
		s.drain(ctx, id)

		select {
		case <-ctx.Done():
			return
		case <-s.notify:
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) drain(ctx context.Context, id int) {
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := s.store.ClaimDueJob(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("worker %d: failed to claim job: %v", id, err)
			return
		}
		if job == nil {
			return
		}

		log.Printf("worker %d: executing job %s (%s, stock %d, attempt %d)",
			id, job.ID, job.Name, job.StockID, job.Retries+1)
		s.execute(ctx, job)
	}
}

// execute runs a claimed job to completion: succeeded, retrying, or
// failed. Outcome recording uses the parent context so a job timeout
// does not also block the status update.
func (s *Scheduler) execute(ctx context.Context, job *models.Job) {
	handler, ok := s.handlers[job.Name]
	if !ok {
		s.fail(ctx, job, fmt.Sprintf("no handler registered for job %q", job.Name))
		return
	}

	jobCtx := ctx
	if s.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, s.cfg.JobTimeout)
		defer cancel()
	}

	result, err := handler(jobCtx, job)
	if err == nil {
		s.succeed(ctx, job, result)
		return
	}

	// Only the job's own deadline counts as an execution timeout; a
	// provider-side timeout surfaces as a retryable error instead.
	if errors.Is(jobCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		s.fail(ctx, job, fmt.Sprintf("job timed out after %s", s.cfg.JobTimeout))
		return
	}

	if IsRetryable(err) {
		if job.Retries < job.MaxRetries {
			runAt := time.Now().Add(s.cfg.RetryDelay)
			if rerr := s.store.ScheduleRetry(ctx, job.ID, runAt, err.Error()); rerr != nil {
				log.Printf("failed to schedule retry for job %s: %v", job.ID, rerr)
			} else {
				log.Printf("job %s scheduled for retry %d/%d at %s: %v",
					job.ID, job.Retries+1, job.MaxRetries, runAt.Format(time.RFC3339), err)
			}
			return
		}
		// Retry budget exhausted; the triggering error is the final result.
		s.fail(ctx, job, err.Error())
		return
	}

	s.fail(ctx, job, err.Error())
}

func (s *Scheduler) succeed(ctx context.Context, job *models.Job, result Result) {
	payload, err := json.Marshal(result)
	if err != nil {
		s.fail(ctx, job, fmt.Sprintf("failed to encode result: %v", err))
		return
	}

	if err := s.store.MarkJobSucceeded(ctx, job.ID, payload); err != nil {
		log.Printf("failed to mark job %s succeeded: %v", job.ID, err)
		return
	}
	job.Status = models.JobSucceeded
	job.Result = payload
	log.Printf("job %s (%s) succeeded: %s", job.ID, job.Name, payload)

	// The success event is published only after the outcome is durable,
	// preserving the happens-before between a job's commit and any
	// chained follow-up.
	if s.publisher != nil {
		if err := s.publisher.PublishJobSucceeded(ctx, job); err != nil {
			log.Printf("failed to publish success event for job %s: %v", job.ID, err)
		}
	}
}

func (s *Scheduler) fail(ctx context.Context, job *models.Job, cause string) {
	if err := s.store.MarkJobFailed(ctx, job.ID, cause); err != nil {
		log.Printf("failed to mark job %s failed: %v", job.ID, err)
		return
	}
	job.Status = models.JobFailed
	job.Error = cause
	log.Printf("job %s (%s) failed: %s", job.ID, job.Name, cause)
}

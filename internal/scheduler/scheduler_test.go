package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/trogers1052/ticker-watch/internal/models"
)

var errJobNotFound = errors.New("job not found")

// mockJobStore implements JobStore in memory for testing
type mockJobStore struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

func newMockJobStore() *mockJobStore {
	return &mockJobStore{jobs: make(map[string]*models.Job)}
}

func (m *mockJobStore) CreateJob(_ context.Context, j *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *j
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.jobs[j.ID] = &cp
	return nil
}

func (m *mockJobStore) GetJob(_ context.Context, id string) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, errJobNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *mockJobStore) ClaimDueJob(_ context.Context) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []*models.Job
	now := time.Now()
	for _, j := range m.jobs {
		if (j.Status == models.JobPending || j.Status == models.JobRetrying) && !j.RunAt.After(now) {
			due = append(due, j)
		}
	}
	if len(due) == 0 {
		return nil, nil
	}
	sort.Slice(due, func(i, k int) bool { return due[i].RunAt.Before(due[k].RunAt) })

	due[0].Status = models.JobStarted
	cp := *due[0]
	return &cp, nil
}

func (m *mockJobStore) ScheduleRetry(_ context.Context, id string, runAt time.Time, lastErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return errJobNotFound
	}
	j.Status = models.JobRetrying
	j.Retries++
	j.RunAt = runAt
	j.Error = lastErr
	return nil
}

func (m *mockJobStore) MarkJobSucceeded(_ context.Context, id string, result json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return errJobNotFound
	}
	j.Status = models.JobSucceeded
	j.Result = result
	j.Error = ""
	return nil
}

func (m *mockJobStore) MarkJobFailed(_ context.Context, id string, lastErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return errJobNotFound
	}
	j.Status = models.JobFailed
	j.Error = lastErr
	return nil
}

func (m *mockJobStore) RecoverStaleJobs(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, j := range m.jobs {
		if j.Status == models.JobStarted {
			j.Status = models.JobPending
			j.RunAt = time.Now()
			n++
		}
	}
	return n, nil
}

// mockPublisher records published success events
type mockPublisher struct {
	mu     sync.Mutex
	events []*models.Job
}

func (m *mockPublisher) PublishJobSucceeded(_ context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.events = append(m.events, &cp)
	return nil
}

func (m *mockPublisher) published() []*models.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Job(nil), m.events...)
}

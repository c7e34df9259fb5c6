package models

import (
	"encoding/json"
	"time"
)

// JobStatus tracks the lifecycle of a queued job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobStarted   JobStatus = "started"
	JobRetrying  JobStatus = "retrying"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is the scheduler's bookkeeping record for one enqueued unit of work.
// StockID is a plain argument, not a foreign key; a job may outlive the
// stock it references.
type Job struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	StockID    int64           `json:"stock_id"`
	Status     JobStatus       `json:"status"`
	Retries    int             `json:"retries"`
	MaxRetries int             `json:"max_retries"`
	RunAt      time.Time       `json:"run_at"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// JobEvent represents a Kafka event emitted when a job finishes.
type JobEvent struct {
	EventType string          `json:"event_type"`
	JobID     string          `json:"job_id"`
	Name      string          `json:"name"`
	StockID   int64           `json:"stock_id"`
	Result    json.RawMessage `json:"result,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

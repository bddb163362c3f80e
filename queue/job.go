package queue

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a queued job.
type Status string

const (
	// StatusWaiting means the job sits in the wait list or prioritized set.
	StatusWaiting Status = "waiting"
	// StatusActive means a worker has claimed the job.
	StatusActive Status = "active"
	// StatusCompleted means the job finished successfully.
	StatusCompleted Status = "completed"
	// StatusFailed means the job exhausted its attempts.
	StatusFailed Status = "failed"
	// StatusDelayed means the job waits for its promotion time, either the
	// caller-requested delay or a retry backoff.
	StatusDelayed Status = "delayed"
)

// Job is the dispatcher-visible record of a queued work item. Once
// enqueued it is mutated only by the worker-side operations; the
// dispatcher reads it back verbatim.
type Job struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Status       Status          `json:"status"`
	Progress     int             `json:"progress"`
	AttemptsMade int             `json:"attemptsMade"`
	FailedReason string          `json:"failedReason,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	ProcessedAt  *time.Time      `json:"processedAt,omitempty"`
	FinishedAt   *time.Time      `json:"finishedAt,omitempty"`
}

// Counts is an advisory snapshot of a queue's per-state job totals. The
// five numbers come from independent commands and need not be mutually
// consistent.
type Counts struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Delayed   int64 `json:"delayed"`
}

// AddOptions carries the per-job knobs accepted at enqueue time. Delay
// postpones the first execution; Priority orders ready jobs, 1 being the
// most urgent and 0 meaning none.
type AddOptions struct {
	Delay    time.Duration
	Priority int
}

// Policy fixes the retry and retention behavior for a queue. All queues
// created by the dispatcher share DefaultPolicy.
type Policy struct {
	MaxAttempts    int
	BackoffInitial time.Duration
	CompletedAge   time.Duration
	CompletedCount int64
	FailedAge      time.Duration
}

// DefaultPolicy returns the process-wide fixed policy: 3 attempts with
// exponential backoff from 1s, completed jobs kept 24h or last 1000,
// failed jobs kept 7 days.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BackoffInitial: time.Second,
		CompletedAge:   24 * time.Hour,
		CompletedCount: 1000,
		FailedAge:      7 * 24 * time.Hour,
	}
}

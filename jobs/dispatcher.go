package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"authkit/queue"
)

// ErrUnknownQueue is returned by Enqueue for a queue name outside the
// fixed set. The read operations signal the same condition with a nil
// result instead, which keeps the HTTP shell's 404 mapping trivial.
var ErrUnknownQueue = errors.New("unknown queue")

// Recognized queue names. The set is closed; dispatching is never
// table-driven off caller input beyond this lookup.
const (
	QueueEmail        = "email"
	QueueCleanup      = "cleanup"
	QueueNotification = "notification"
)

// Job names used by the workers to route payloads.
const (
	jobSendEmail = "send-email"
	jobCleanup   = "cleanup"
	jobNotify    = "notify"
)

// EmailJob is the payload of a send-email job.
type EmailJob struct {
	To       string                 `json:"to"`
	Subject  string                 `json:"subject"`
	Body     string                 `json:"body"`
	Template string                 `json:"template,omitempty"`
	Context  map[string]interface{} `json:"context,omitempty"`
}

// CleanupJob asks the worker to purge aged data of the given type
// (expired_sessions, old_logs, orphaned_data).
type CleanupJob struct {
	Type          string `json:"type"`
	OlderThanDays int    `json:"olderThanDays,omitempty"`
}

// NotificationJob is the payload of a user-facing notification.
type NotificationJob struct {
	UserID  string                 `json:"userId"`
	Type    string                 `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Options are the caller-settable enqueue knobs; everything else about
// retry and retention is fixed process-wide.
type Options struct {
	Delay    time.Duration
	Priority int
}

// QueueStats is the advisory per-queue health snapshot.
type QueueStats struct {
	Name string `json:"name"`
	queue.Counts
}

// Dispatcher writes typed job payloads into the named durable queues and
// reads back per-job status and aggregate counts. It never executes jobs;
// a separate worker process claims and runs them.
type Dispatcher struct {
	queues map[string]*queue.Queue
	log    zerolog.Logger
}

// NewDispatcher returns a Dispatcher over the closed queue set, all
// sharing the default retry/retention policy.
func NewDispatcher(rdb redis.UniversalClient, log zerolog.Logger) *Dispatcher {
	policy := queue.DefaultPolicy()
	queues := make(map[string]*queue.Queue, 3)
	for _, name := range []string{QueueEmail, QueueCleanup, QueueNotification} {
		queues[name] = queue.New(rdb, name, policy)
	}
	return &Dispatcher{queues: queues, log: log}
}

// Enqueue adds a job to the named queue and returns the queue-assigned
// identifier. It never blocks on job execution.
func (d *Dispatcher) Enqueue(ctx context.Context, queueName, jobName string, payload []byte, opts Options) (string, error) {
	q, ok := d.queues[queueName]
	if !ok {
		return "", ErrUnknownQueue
	}

	id, err := q.Add(ctx, jobName, payload, queue.AddOptions{
		Delay:    opts.Delay,
		Priority: opts.Priority,
	})
	if err != nil {
		return "", err
	}

	d.log.Info().
		Str("queue", queueName).
		Str("job", jobName).
		Str("id", id).
		Msg("job enqueued")

	return id, nil
}

// EnqueueEmail queues an email delivery job.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, data EmailJob, opts Options) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return d.Enqueue(ctx, QueueEmail, jobSendEmail, payload, opts)
}

// EnqueueCleanup queues a data-cleanup job.
func (d *Dispatcher) EnqueueCleanup(ctx context.Context, data CleanupJob, opts Options) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return d.Enqueue(ctx, QueueCleanup, jobCleanup, payload, opts)
}

// EnqueueNotification queues a notification job at high priority.
func (d *Dispatcher) EnqueueNotification(ctx context.Context, data NotificationJob) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return d.Enqueue(ctx, QueueNotification, jobNotify, payload, Options{Priority: 1})
}

// Status returns the job record, or (nil, nil) when either the queue name
// is unrecognized or the id is unknown — the two cases are
// indistinguishable to the caller on purpose.
func (d *Dispatcher) Status(ctx context.Context, queueName, jobID string) (*queue.Job, error) {
	q, ok := d.queues[queueName]
	if !ok {
		return nil, nil
	}
	return q.GetJob(ctx, jobID)
}

// Stats returns the queue's advisory per-state counts, or (nil, nil) for
// an unrecognized queue name.
func (d *Dispatcher) Stats(ctx context.Context, queueName string) (*QueueStats, error) {
	q, ok := d.queues[queueName]
	if !ok {
		return nil, nil
	}

	counts, err := q.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &QueueStats{Name: queueName, Counts: counts}, nil
}

// Queue exposes a named queue handle for worker processes. Returns nil
// for names outside the fixed set.
func (d *Dispatcher) Queue(name string) *queue.Queue {
	return d.queues[name]
}

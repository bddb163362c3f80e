package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Hash field names of the per-job record.
const (
	fieldName      = "name"
	fieldPayload   = "payload"
	fieldStatus    = "status"
	fieldProgress  = "progress"
	fieldAttempts  = "attempts"
	fieldReason    = "reason"
	fieldPriority  = "priority"
	fieldCreated   = "created"
	fieldProcessed = "processed"
	fieldFinished  = "finished"
)

// priorityShift composes (priority, id) into one zset score so that ready
// prioritized jobs pop urgent-first, FIFO within a priority band. Scores
// stay exact while id < 2^33 and priority < 2^20.
const priorityShift = 1 << 33

// Queue is one named durable queue. Producers call Add and the read
// operations; the out-of-process worker drives Claim, Complete, Fail, and
// UpdateProgress.
//
// Key layout under `queue:<name>:` — `id` counter, `job:<id>` hash,
// `wait` list, `prioritized` zset, `active` list, `delayed` zset keyed by
// promotion time, `completed`/`failed` zsets keyed by finish time.
type Queue struct {
	redis  redis.UniversalClient
	name   string
	policy Policy
}

// New returns a Queue handle for name. Handles are cheap; all state lives
// in Redis.
func New(rdb redis.UniversalClient, name string, policy Policy) *Queue {
	if policy.MaxAttempts <= 0 {
		policy = DefaultPolicy()
	}
	return &Queue{redis: rdb, name: name, policy: policy}
}

// Name returns the queue name.
func (q *Queue) Name() string { return q.name }

func (q *Queue) key(suffix string) string {
	return "queue:" + q.name + ":" + suffix
}

func (q *Queue) jobKey(id string) string {
	return q.key("job:" + id)
}

// Add enqueues a job and returns its queue-assigned identifier. The call
// never blocks on execution; delayed jobs land in the delayed set, ready
// jobs in the wait list or prioritized set.
func (q *Queue) Add(ctx context.Context, jobName string, payload []byte, opts AddOptions) (string, error) {
	seq, err := q.redis.Incr(ctx, q.key("id")).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	id := strconv.FormatInt(seq, 10)
	now := time.Now()

	status := StatusWaiting
	if opts.Delay > 0 {
		status = StatusDelayed
	}

	_, err = q.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.jobKey(id), map[string]interface{}{
			fieldName:     jobName,
			fieldPayload:  payload,
			fieldStatus:   string(status),
			fieldProgress: 0,
			fieldAttempts: 0,
			fieldPriority: opts.Priority,
			fieldCreated:  now.UnixMilli(),
		})
		switch {
		case opts.Delay > 0:
			pipe.ZAdd(ctx, q.key("delayed"), redis.Z{
				Score:  float64(now.Add(opts.Delay).UnixMilli()),
				Member: id,
			})
		case opts.Priority > 0:
			pipe.ZAdd(ctx, q.key("prioritized"), redis.Z{
				Score:  float64(opts.Priority)*priorityShift + float64(seq),
				Member: id,
			})
		default:
			pipe.LPush(ctx, q.key("wait"), id)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return id, nil
}

// GetJob reads a job record by id. An unknown id returns (nil, nil), not
// an error.
func (q *Queue) GetJob(ctx context.Context, id string) (*Job, error) {
	fields, err := q.redis.HGetAll(ctx, q.jobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return jobFromHash(id, fields), nil
}

// Counts fetches the five per-state totals in a single pipeline. The
// commands are independent; the snapshot is advisory.
func (q *Queue) Counts(ctx context.Context) (Counts, error) {
	pipe := q.redis.Pipeline()
	wait := pipe.LLen(ctx, q.key("wait"))
	prioritized := pipe.ZCard(ctx, q.key("prioritized"))
	active := pipe.LLen(ctx, q.key("active"))
	completed := pipe.ZCard(ctx, q.key("completed"))
	failed := pipe.ZCard(ctx, q.key("failed"))
	delayed := pipe.ZCard(ctx, q.key("delayed"))
	if _, err := pipe.Exec(ctx); err != nil {
		return Counts{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return Counts{
		Waiting:   wait.Val() + prioritized.Val(),
		Active:    active.Val(),
		Completed: completed.Val(),
		Failed:    failed.Val(),
		Delayed:   delayed.Val(),
	}, nil
}

// Claim promotes due delayed jobs and hands the next ready job to a
// worker, moving it to the active list. Returns (nil, nil) when nothing
// is ready.
func (q *Queue) Claim(ctx context.Context) (*Job, error) {
	if err := q.promoteDue(ctx); err != nil {
		return nil, err
	}

	id, err := q.popReady(ctx)
	if err != nil || id == "" {
		return nil, err
	}

	now := time.Now()
	_, err = q.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, q.key("active"), id)
		pipe.HSet(ctx, q.jobKey(id),
			fieldStatus, string(StatusActive),
			fieldProcessed, now.UnixMilli(),
		)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return q.GetJob(ctx, id)
}

// Complete marks a claimed job successful and applies completed-set
// retention.
func (q *Queue) Complete(ctx context.Context, id string) error {
	now := time.Now()
	_, err := q.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.key("active"), 0, id)
		pipe.HSet(ctx, q.jobKey(id),
			fieldStatus, string(StatusCompleted),
			fieldProgress, 100,
			fieldFinished, now.UnixMilli(),
		)
		pipe.ZAdd(ctx, q.key("completed"), redis.Z{Score: float64(now.UnixMilli()), Member: id})
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return q.trimCompleted(ctx, now)
}

// Fail records a failed attempt. Attempts below the policy maximum are
// rescheduled with exponential backoff; the final failure parks the job
// in the failed set under the failed-retention window.
func (q *Queue) Fail(ctx context.Context, id, reason string) error {
	attempts, err := q.redis.HIncrBy(ctx, q.jobKey(id), fieldAttempts, 1).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	now := time.Now()
	if attempts < int64(q.policy.MaxAttempts) {
		backoff := q.policy.BackoffInitial << (attempts - 1)
		_, err = q.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LRem(ctx, q.key("active"), 0, id)
			pipe.HSet(ctx, q.jobKey(id),
				fieldStatus, string(StatusDelayed),
				fieldReason, reason,
			)
			pipe.ZAdd(ctx, q.key("delayed"), redis.Z{
				Score:  float64(now.Add(backoff).UnixMilli()),
				Member: id,
			})
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		return nil
	}

	_, err = q.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.key("active"), 0, id)
		pipe.HSet(ctx, q.jobKey(id),
			fieldStatus, string(StatusFailed),
			fieldReason, reason,
			fieldFinished, now.UnixMilli(),
		)
		pipe.ZAdd(ctx, q.key("failed"), redis.Z{Score: float64(now.UnixMilli()), Member: id})
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return q.trimFailed(ctx, now)
}

// UpdateProgress sets the job's progress percentage.
func (q *Queue) UpdateProgress(ctx context.Context, id string, progress int) error {
	if err := q.redis.HSet(ctx, q.jobKey(id), fieldProgress, progress).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// promoteDue moves delayed jobs whose promotion time has passed back into
// the ready structures.
func (q *Queue) promoteDue(ctx context.Context) error {
	now := time.Now().UnixMilli()
	ids, err := q.redis.ZRangeByScore(ctx, q.key("delayed"), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now, 10),
	}).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	for _, id := range ids {
		priority, _ := q.redis.HGet(ctx, q.jobKey(id), fieldPriority).Int()
		seq, _ := strconv.ParseInt(id, 10, 64)

		_, err = q.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZRem(ctx, q.key("delayed"), id)
			pipe.HSet(ctx, q.jobKey(id), fieldStatus, string(StatusWaiting))
			if priority > 0 {
				pipe.ZAdd(ctx, q.key("prioritized"), redis.Z{
					Score:  float64(priority)*priorityShift + float64(seq),
					Member: id,
				})
			} else {
				pipe.LPush(ctx, q.key("wait"), id)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return nil
}

// popReady takes the next job id. Any prioritized job outranks the whole
// un-prioritized wait list, urgent-first (priority 1 before 2), FIFO
// within a band; plain wait-list jobs go FIFO among themselves. Empty
// string means nothing is ready.
func (q *Queue) popReady(ctx context.Context) (string, error) {
	members, err := q.redis.ZPopMin(ctx, q.key("prioritized"), 1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(members) > 0 {
		return members[0].Member.(string), nil
	}

	id, err := q.redis.RPop(ctx, q.key("wait")).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return id, nil
}

func (q *Queue) trimCompleted(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-q.policy.CompletedAge).UnixMilli()
	if err := q.removeRange(ctx, q.key("completed"), "-inf", strconv.FormatInt(cutoff, 10)); err != nil {
		return err
	}

	card, err := q.redis.ZCard(ctx, q.key("completed")).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if card <= q.policy.CompletedCount {
		return nil
	}

	excess, err := q.redis.ZRange(ctx, q.key("completed"), 0, card-q.policy.CompletedCount-1).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return q.dropJobs(ctx, q.key("completed"), excess)
}

func (q *Queue) trimFailed(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-q.policy.FailedAge).UnixMilli()
	return q.removeRange(ctx, q.key("failed"), "-inf", strconv.FormatInt(cutoff, 10))
}

// removeRange drops zset members in [min, max] along with their job
// hashes.
func (q *Queue) removeRange(ctx context.Context, key, min, max string) error {
	ids, err := q.redis.ZRangeByScore(ctx, key, &redis.ZRangeBy{Min: min, Max: max}).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return q.dropJobs(ctx, key, ids)
}

func (q *Queue) dropJobs(ctx context.Context, key string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := q.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		members := make([]interface{}, len(ids))
		for i, id := range ids {
			members[i] = id
			pipe.Del(ctx, q.jobKey(id))
		}
		pipe.ZRem(ctx, key, members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func jobFromHash(id string, fields map[string]string) *Job {
	job := &Job{
		ID:           id,
		Name:         fields[fieldName],
		Payload:      []byte(fields[fieldPayload]),
		Status:       Status(fields[fieldStatus]),
		FailedReason: fields[fieldReason],
	}
	job.Progress, _ = strconv.Atoi(fields[fieldProgress])
	job.AttemptsMade, _ = strconv.Atoi(fields[fieldAttempts])

	if ms, err := strconv.ParseInt(fields[fieldCreated], 10, 64); err == nil {
		job.CreatedAt = time.UnixMilli(ms)
	}
	if ms, err := strconv.ParseInt(fields[fieldProcessed], 10, 64); err == nil {
		t := time.UnixMilli(ms)
		job.ProcessedAt = &t
	}
	if ms, err := strconv.ParseInt(fields[fieldFinished], 10, 64); err == nil {
		t := time.UnixMilli(ms)
		job.FinishedAt = &t
	}

	return job
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// DefaultQueueKey is the Redis list jobs are pushed to.
	DefaultQueueKey = "climate:jobs"
	// DefaultStatusTTL bounds how long a finished job's status stays
	// readable after its last update.
	DefaultStatusTTL = 1 * time.Hour
)

// ErrUnknownJob is returned when a status lookup finds no record, either
// because the ID never existed or the status TTL elapsed.
var ErrUnknownJob = errors.New("unknown job id")

// Queue submits jobs and tracks their status in Redis.
type Queue struct {
	rdb       *redis.Client
	key       string
	statusTTL time.Duration
	log       zerolog.Logger
}

// NewQueue creates a Queue. Empty key and zero TTL get defaults.
func NewQueue(rdb *redis.Client, key string, statusTTL time.Duration, log zerolog.Logger) *Queue {
	if key == "" {
		key = DefaultQueueKey
	}
	if statusTTL <= 0 {
		statusTTL = DefaultStatusTTL
	}
	return &Queue{
		rdb:       rdb,
		key:       key,
		statusTTL: statusTTL,
		log:       log.With().Str("component", "job_queue").Logger(),
	}
}

func (q *Queue) statusKey(id string) string {
	return q.key + ":status:" + id
}

// Enqueue submits a new job and marks it queued, returning the job ID.
func (q *Queue) Enqueue(ctx context.Context, op Op, args any) (string, error) {
	rawArgs, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("marshaling job args: %w", err)
	}

	job := Job{
		ID:          uuid.NewString(),
		Op:          op,
		Args:        rawArgs,
		SubmittedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshaling job envelope: %w", err)
	}

	if err := q.SetStatus(ctx, job.ID, Status{State: StateQueued}); err != nil {
		return "", err
	}
	if err := q.rdb.LPush(ctx, q.key, payload).Err(); err != nil {
		return "", fmt.Errorf("enqueueing job: %w", err)
	}

	q.log.Debug().Str("job_id", job.ID).Str("op", string(op)).Msg("job enqueued")
	return job.ID, nil
}

// Dequeue blocks up to timeout for the next job. ok=false means the wait
// timed out with an empty queue.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (Job, bool, error) {
	vals, err := q.rdb.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Job{}, false, nil
		}
		return Job{}, false, fmt.Errorf("dequeueing job: %w", err)
	}

	// BRPOP returns [key, value].
	var job Job
	if err := json.Unmarshal([]byte(vals[1]), &job); err != nil {
		return Job{}, false, fmt.Errorf("unmarshaling job envelope: %w", err)
	}
	return job, true, nil
}

// SetStatus records the job's status with a fresh TTL.
func (q *Queue) SetStatus(ctx context.Context, id string, status Status) error {
	status.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshaling job status: %w", err)
	}
	if err := q.rdb.Set(ctx, q.statusKey(id), payload, q.statusTTL).Err(); err != nil {
		return fmt.Errorf("writing job status: %w", err)
	}
	return nil
}

// GetStatus reads the job's current status.
func (q *Queue) GetStatus(ctx context.Context, id string) (Status, error) {
	data, err := q.rdb.Get(ctx, q.statusKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Status{}, ErrUnknownJob
		}
		return Status{}, fmt.Errorf("reading job status: %w", err)
	}

	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		return Status{}, fmt.Errorf("unmarshaling job status: %w", err)
	}
	return status, nil
}

// Await polls the job's status until it reaches a terminal state or ctx
// expires.
func (q *Queue) Await(ctx context.Context, id string, poll time.Duration) (Status, error) {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		status, err := q.GetStatus(ctx, id)
		if err != nil {
			return Status{}, err
		}
		if status.Terminal() {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return Status{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

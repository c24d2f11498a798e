package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RetryPolicy is the invocation-side retry contract: a bounded number of
// attempts with a fixed backoff between them. It operates on Status values
// rather than errors, and only re-runs failures the taxonomy marks as
// retryable (data source hiccups). City-not-found is terminal.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy mirrors the bounded requeue behaviour of the API
// boundary: up to three attempts.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: 500 * time.Millisecond}

func (p RetryPolicy) retryable(status Status) bool {
	return status.State == StateFailed && status.ErrorKind == ErrorKindDataSource
}

// Submitter is the queue surface the client needs. *Queue satisfies it.
type Submitter interface {
	Enqueue(ctx context.Context, op Op, args any) (string, error)
	Await(ctx context.Context, id string, poll time.Duration) (Status, error)
}

// Client is the caller-facing side of the job boundary: it submits an
// operation, awaits its terminal status, and applies the retry policy.
type Client struct {
	queue Submitter
	poll  time.Duration
	retry RetryPolicy
	log   zerolog.Logger
}

// NewClient creates a Client polling at the given interval.
func NewClient(queue Submitter, poll time.Duration, retry RetryPolicy, log zerolog.Logger) *Client {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy
	}
	return &Client{
		queue: queue,
		poll:  poll,
		retry: retry,
		log:   log.With().Str("component", "job_client").Logger(),
	}
}

// Run submits op with args and blocks until a terminal status, retrying
// retryable failures up to the policy's attempt budget. It returns the
// final status and the number of attempts used. A non-nil error means the
// boundary itself broke (queue unreachable, ctx expired), not that the
// operation failed; operation failures are reported through the status.
func (c *Client) Run(ctx context.Context, op Op, args any) (Status, int, error) {
	var status Status

	for attempt := 1; ; attempt++ {
		id, err := c.queue.Enqueue(ctx, op, args)
		if err != nil {
			return Status{}, attempt, err
		}

		status, err = c.queue.Await(ctx, id, c.poll)
		if err != nil {
			return Status{}, attempt, err
		}

		if !c.retry.retryable(status) || attempt >= c.retry.MaxAttempts {
			return status, attempt, nil
		}

		c.log.Warn().
			Str("op", string(op)).
			Int("attempt", attempt).
			Str("error", status.Error).
			Msg("retrying failed job")

		if c.retry.Backoff > 0 {
			select {
			case <-ctx.Done():
				return Status{}, attempt, ctx.Err()
			case <-time.After(c.retry.Backoff * time.Duration(attempt)):
			}
		}
	}
}

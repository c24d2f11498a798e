package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/travel-climate/internal/meteo"
)

// DefaultJobTimeout bounds one job's wall-clock execution. A timed-out job
// is simply abandoned; if the underlying resolution still completes it
// leaves a good cache entry behind for later requests.
const DefaultJobTimeout = 5 * time.Minute

// Handler executes one operation against its raw argument payload.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Worker consumes jobs from a Queue and dispatches them to registered
// handlers, one at a time.
type Worker struct {
	queue    *Queue
	handlers map[Op]Handler
	timeout  time.Duration
	log      zerolog.Logger
}

// NewWorker creates a Worker. A zero timeout falls back to
// DefaultJobTimeout.
func NewWorker(queue *Queue, timeout time.Duration, log zerolog.Logger) *Worker {
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	return &Worker{
		queue:    queue,
		handlers: make(map[Op]Handler),
		timeout:  timeout,
		log:      log.With().Str("component", "job_worker").Logger(),
	}
}

// Register wires a handler for an operation. Later registrations for the
// same op win.
func (w *Worker) Register(op Op, handler Handler) {
	w.handlers[op] = handler
}

// Run consumes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Msg("job worker started")
	for {
		job, ok, err := w.queue.Dequeue(ctx, 1*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				w.log.Info().Msg("job worker stopping")
				return nil
			}
			w.log.Error().Err(err).Msg("dequeue failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(1 * time.Second):
			}
			continue
		}
		if !ok {
			if ctx.Err() != nil {
				w.log.Info().Msg("job worker stopping")
				return nil
			}
			continue
		}
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job Job) {
	start := time.Now()
	log := w.log.With().Str("job_id", job.ID).Str("op", string(job.Op)).Logger()

	handler, ok := w.handlers[job.Op]
	if !ok {
		log.Error().Msg("no handler registered for op")
		w.setStatus(ctx, job.ID, Status{
			State:     StateFailed,
			Error:     fmt.Sprintf("unsupported operation: %s", job.Op),
			ErrorKind: ErrorKindInternal,
		})
		return
	}

	w.setStatus(ctx, job.ID, Status{State: StateRunning})

	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	result, err := handler(runCtx, job.Args)
	cancel()

	if err != nil {
		log.Warn().Err(err).Dur("dur", time.Since(start)).Msg("job failed")
		w.setStatus(ctx, job.ID, Status{
			State:     StateFailed,
			Error:     err.Error(),
			ErrorKind: classifyError(err),
		})
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		log.Error().Err(err).Msg("marshaling job result failed")
		w.setStatus(ctx, job.ID, Status{
			State:     StateFailed,
			Error:     fmt.Sprintf("marshaling result: %v", err),
			ErrorKind: ErrorKindInternal,
		})
		return
	}

	log.Info().Dur("dur", time.Since(start)).Msg("job completed")
	w.setStatus(ctx, job.ID, Status{State: StateFinished, Result: payload})
}

func (w *Worker) setStatus(ctx context.Context, id string, status Status) {
	if err := w.queue.SetStatus(ctx, id, status); err != nil {
		w.log.Error().Str("job_id", id).Err(err).Msg("writing job status failed")
	}
}

// classifyError maps domain errors onto the retry taxonomy.
func classifyError(err error) ErrorKind {
	switch {
	case meteo.IsCityNotFound(err):
		return ErrorKindCityNotFound
	case meteo.IsDataSource(err):
		return ErrorKindDataSource
	default:
		return ErrorKindInternal
	}
}

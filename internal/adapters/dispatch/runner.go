// Package dispatch runs the at-least-once task delivery loop: it claims grade
// task envelopes from the queue and invokes the orchestrator in-process,
// acking on success and redelivering on failure.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avschaefer/cloudhire-ai-api/internal/data"
	"github.com/avschaefer/cloudhire-ai-api/internal/domain/model"
	apperrors "github.com/avschaefer/cloudhire-ai-api/internal/errors"
	"github.com/avschaefer/cloudhire-ai-api/internal/service"
)

// TaskQueue is the dispatch transport the runner drains.
type TaskQueue interface {
	Claim(ctx context.Context, timeout time.Duration) ([]byte, error)
	Ack(ctx context.Context, envelope []byte) error
	Requeue(ctx context.Context, claimed, replacement []byte) error
	RequeueStale(ctx context.Context, max int) (int, error)
}

// Processor runs one claimed task.
type Processor interface {
	Process(ctx context.Context, task *model.GradeTask) (*service.TaskOutcome, error)
}

const staleSweepBatch = 100

// RunnerOptions groups dependencies for Runner.
type RunnerOptions struct {
	Queue     TaskQueue
	Processor Processor
	// MaxAttempts is the delivery ceiling per envelope; exceeded envelopes
	// are dropped.
	MaxAttempts int
	// ClaimTimeout bounds each blocking claim.
	ClaimTimeout time.Duration
	// RequeueInterval is the stale-entry sweep period.
	RequeueInterval time.Duration
	Logger          *slog.Logger
}

// Runner claims and executes grade tasks until its context is canceled.
type Runner struct {
	queue           TaskQueue
	processor       Processor
	maxAttempts     int
	claimTimeout    time.Duration
	requeueInterval time.Duration
	logger          *slog.Logger
}

// NewRunner constructs a Runner.
func NewRunner(opts RunnerOptions) *Runner {
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	claimTimeout := opts.ClaimTimeout
	if claimTimeout <= 0 {
		claimTimeout = 5 * time.Second
	}
	requeueInterval := opts.RequeueInterval
	if requeueInterval <= 0 {
		requeueInterval = 30 * time.Second
	}

	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "dispatch_runner")
	}

	return &Runner{
		queue:           opts.Queue,
		processor:       opts.Processor,
		maxAttempts:     maxAttempts,
		claimTimeout:    claimTimeout,
		requeueInterval: requeueInterval,
		logger:          logger,
	}
}

// Run drives the claim loop and the stale sweep until ctx is canceled. It
// returns nil on clean shutdown.
func (r *Runner) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return r.claimLoop(ctx) })
	eg.Go(func() error { return r.sweepLoop(ctx) })

	err := eg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) claimLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		envelope, err := r.queue.Claim(ctx, r.claimTimeout)
		if errors.Is(err, data.ErrNoTask) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if r.logger != nil {
				r.logger.ErrorContext(ctx, "task claim failed", "error", err)
			}
			// Transient transport failure; back off briefly instead of
			// hammering the queue.
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		r.handle(ctx, envelope)
	}
}

// handle runs one claimed envelope and settles it with the queue: ack on
// success or a poisoned envelope, requeue with a bumped attempt counter on
// failure below the ceiling.
func (r *Runner) handle(ctx context.Context, envelope []byte) {
	var task model.GradeTask
	if err := json.Unmarshal(envelope, &task); err != nil {
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "dropping undecodable task envelope", "error", err)
		}
		r.ack(ctx, envelope)
		return
	}

	outcome, err := r.processor.Process(ctx, &task)
	switch {
	case err == nil:
		if r.logger != nil {
			r.logger.InfoContext(ctx, "task processed",
				"job_id", outcome.JobID,
				"status", outcome.Status,
				"attempt", task.Attempt+1,
			)
		}
		r.ack(ctx, envelope)

	case apperrors.IsValidation(err):
		// Input errors never become deliverable by retrying.
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "dropping invalid task", "error", err)
		}
		r.ack(ctx, envelope)

	default:
		r.retry(ctx, envelope, &task, err)
	}
}

func (r *Runner) retry(ctx context.Context, envelope []byte, task *model.GradeTask, cause error) {
	task.Attempt++
	if task.Attempt >= r.maxAttempts {
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "dropping task after max attempts",
				"job_id", task.JobID,
				"attempts", task.Attempt,
				"error", cause,
			)
		}
		r.ack(ctx, envelope)
		return
	}

	replacement, err := json.Marshal(task)
	if err != nil {
		replacement = envelope
	}
	if err := r.queue.Requeue(ctx, envelope, replacement); err != nil {
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "task requeue failed", "job_id", task.JobID, "error", err)
		}
		return
	}
	if r.logger != nil {
		r.logger.WarnContext(ctx, "task requeued",
			"job_id", task.JobID,
			"attempt", task.Attempt,
			"error", cause,
		)
	}
}

func (r *Runner) ack(ctx context.Context, envelope []byte) {
	if err := r.queue.Ack(ctx, envelope); err != nil && r.logger != nil {
		r.logger.ErrorContext(ctx, "task ack failed", "error", err)
	}
}

// sweepLoop periodically moves stale processing entries back onto the queue
// so envelopes held by a crashed runner are redelivered.
func (r *Runner) sweepLoop(ctx context.Context) error {
	ticker := time.NewTicker(r.requeueInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			moved, err := r.queue.RequeueStale(ctx, staleSweepBatch)
			if err != nil && r.logger != nil {
				r.logger.ErrorContext(ctx, "stale sweep failed", "error", err)
			}
			if moved > 0 && r.logger != nil {
				r.logger.InfoContext(ctx, "requeued stale tasks", "count", moved)
			}
		}
	}
}

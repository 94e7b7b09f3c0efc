package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/phrazzld/reportd/internal/domain"
	"github.com/phrazzld/reportd/internal/generation"
	"github.com/phrazzld/reportd/internal/store"
)

// Progress checkpoints recorded while a task runs.
const (
	ProgressStarted   = 10
	ProgressCollected = 50
	ProgressDone      = 100
)

// panicError carries a recovered panic out of a generator phase.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("generator panicked: %v", e.value)
}

// Coordinator drives one task from pending to completed or failed. Every
// outcome, including generator panics and timeouts, ends up on the task record.
type Coordinator struct {
	store   store.TaskStore
	factory generation.Factory
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// CoordinatorOption customizes a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithTimeout bounds each task's generator phases. Zero disables the deadline.
func WithTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.timeout = d }
}

// WithCoordinatorClock overrides the clock used for lifecycle timestamps.
func WithCoordinatorClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(
	taskStore store.TaskStore,
	factory generation.Factory,
	logger *slog.Logger,
	opts ...CoordinatorOption,
) *Coordinator {
	c := &Coordinator{
		store:   taskStore,
		factory: factory,
		logger:  logger.With("component", "task_coordinator"),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes the task identified by id. It never returns an error and never
// panics: a task that is no longer pending is left untouched, and any
// generator failure is recorded as a structured failure on the task.
func (c *Coordinator) Run(ctx context.Context, id string, params domain.Params) {
	log := c.logger.With("task_id", id)

	current, err := c.store.Get(ctx, id)
	if err != nil {
		log.WarnContext(ctx, "task vanished before start", "error", err)
		return
	}
	if current.Status != domain.TaskStatusPending {
		log.InfoContext(ctx, "task no longer pending, skipping", "status", current.Status)
		return
	}
	if ctx.Err() != nil {
		c.abandon(ctx, id, log)
		return
	}

	// The transition guard makes this the single winner against a concurrent cancel.
	startedAt := c.now()
	running := domain.TaskStatusRunning
	if err := c.store.Update(ctx, id, store.TaskPatch{Status: &running, StartedAt: &startedAt}); err != nil {
		if store.IsPreconditionError(err) {
			log.InfoContext(ctx, "task left pending before start, skipping", "error", err)
			return
		}
		log.ErrorContext(ctx, "failed to mark task running", "error", err)
		return
	}
	log.InfoContext(ctx, "task started",
		"company", params.Company,
		"code", params.Code,
		"market", params.Market)

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	path, failure := c.generate(runCtx, id, params, log)

	// Final updates use the parent context so a deadline still gets recorded.
	completedAt := c.now()
	if failure != nil {
		failed := domain.TaskStatusFailed
		if err := c.store.Update(ctx, id, store.TaskPatch{
			Status:      &failed,
			CompletedAt: &completedAt,
			Failure:     failure,
		}); err != nil {
			log.ErrorContext(ctx, "failed to record task failure", "error", err)
			return
		}
		log.WarnContext(ctx, "task failed",
			"failure_kind", failure.Kind,
			"error", failure.Message,
			"duration", completedAt.Sub(startedAt))
		return
	}

	completed := domain.TaskStatusCompleted
	done := ProgressDone
	if err := c.store.Update(ctx, id, store.TaskPatch{
		Status:      &completed,
		Progress:    &done,
		CompletedAt: &completedAt,
		OutputPath:  &path,
	}); err != nil {
		log.ErrorContext(ctx, "failed to record task completion", "error", err)
		return
	}
	log.InfoContext(ctx, "task completed",
		"output_path", path,
		"duration", completedAt.Sub(startedAt))
}

// generate runs both generator phases with progress checkpoints and returns
// the artifact path or a failure.
func (c *Coordinator) generate(
	ctx context.Context,
	id string,
	params domain.Params,
	log *slog.Logger,
) (string, *domain.Failure) {
	c.setProgress(ctx, id, ProgressStarted, log)

	var gen generation.Generator
	err := runPhase(ctx, func(ctx context.Context) error {
		var err error
		if gen, err = c.factory.NewGenerator(params); err != nil {
			return err
		}
		return gen.CollectData(ctx)
	})
	if err != nil {
		return "", classify(ctx, domain.FailureKindCollect, err, log)
	}

	c.setProgress(ctx, id, ProgressCollected, log)

	var path string
	err = runPhase(ctx, func(ctx context.Context) error {
		var err error
		path, err = gen.RenderArtifact(ctx)
		if err == nil && path == "" {
			err = generation.ErrEmptyArtifactPath
		}
		return err
	})
	if err != nil {
		return "", classify(ctx, domain.FailureKindRender, err, log)
	}
	return path, nil
}

func (c *Coordinator) setProgress(ctx context.Context, id string, progress int, log *slog.Logger) {
	if err := c.store.Update(context.WithoutCancel(ctx), id, store.TaskPatch{Progress: &progress}); err != nil {
		log.ErrorContext(ctx, "failed to record progress", "progress", progress, "error", err)
	}
}

// runPhase runs fn on its own goroutine so a generator that ignores ctx can
// still be abandoned at the deadline. Panics come back as *panicError.
func runPhase(ctx context.Context, fn func(context.Context) error) error {
	result := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- &panicError{value: r, stack: debug.Stack()}
			}
		}()
		result <- fn(ctx)
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// classify turns a phase error into a failure kind.
func classify(ctx context.Context, phase domain.FailureKind, err error, log *slog.Logger) *domain.Failure {
	var pe *panicError
	switch {
	case errors.As(err, &pe):
		log.ErrorContext(ctx, "generator panicked", "phase", phase, "panic", fmt.Sprint(pe.value), "stack", string(pe.stack))
		return domain.NewFailure(domain.FailureKindPanic, err)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &domain.Failure{
			Kind:    domain.FailureKindTimeout,
			Message: fmt.Sprintf("%s phase exceeded the task deadline", phase),
		}
	default:
		return domain.NewFailure(phase, err)
	}
}

// abandon cancels a task whose execution context ended before it started,
// so it does not stay pending with nothing left to run it.
func (c *Coordinator) abandon(ctx context.Context, id string, log *slog.Logger) {
	cancelled := domain.TaskStatusCancelled
	err := c.store.Update(context.WithoutCancel(ctx), id, store.TaskPatch{Status: &cancelled})
	if err != nil {
		log.WarnContext(ctx, "failed to cancel abandoned task", "error", err)
		return
	}
	log.WarnContext(ctx, "task cancelled before start", "error", ctx.Err())
}

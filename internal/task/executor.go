package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrExecutorClosed is returned by Go after Shutdown has been called.
var ErrExecutorClosed = errors.New("executor is shut down")

// ExecutorConfig holds configuration for the executor
type ExecutorConfig struct {
	// MaxConcurrent caps how many units run at once. Zero or negative means
	// every unit starts immediately.
	MaxConcurrent int
}

// Executor runs units of work in the background so the submitting caller
// returns immediately. Units are unordered relative to each other.
type Executor struct {
	ctx    context.Context
	cancel context.CancelFunc
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewExecutor creates an Executor.
func NewExecutor(config ExecutorConfig, logger *slog.Logger) *Executor {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Executor{
		ctx:    ctx,
		cancel: cancel,
		logger: logger.With("component", "executor"),
	}
	if config.MaxConcurrent > 0 {
		e.sem = semaphore.NewWeighted(int64(config.MaxConcurrent))
	}
	return e
}

// Go schedules unit and returns without waiting for it to start. The unit's
// context is cancelled only when Shutdown gives up waiting. A unit still
// waiting for a concurrency slot at that point is invoked with the cancelled
// context instead of being started.
func (e *Executor) Go(name string, unit func(ctx context.Context)) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("%w: rejected %s", ErrExecutorClosed, name)
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go e.run(name, unit)
	return nil
}

func (e *Executor) run(name string, unit func(ctx context.Context)) {
	defer e.wg.Done()
	log := e.logger.With("unit", name)

	defer func() {
		if r := recover(); r != nil {
			log.Error("unit panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()

	if e.sem != nil {
		if err := e.sem.Acquire(e.ctx, 1); err != nil {
			// Still handed to the unit, with its context already done, so it
			// can release whatever it reserved.
			log.Warn("unit dropped before start", "error", err)
			unit(e.ctx)
			return
		}
		defer e.sem.Release(1)
	}

	log.Debug("unit started")
	unit(e.ctx)
	log.Debug("unit finished")
}

// Shutdown stops accepting units and waits for in-flight ones. If ctx expires
// first, the units' context is cancelled and ctx's error is returned.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.cancel()
		e.logger.Info("executor drained")
		return nil
	case <-ctx.Done():
		e.cancel()
		e.logger.Warn("executor shutdown timed out, cancelling in-flight units", "error", ctx.Err())
		return ctx.Err()
	}
}

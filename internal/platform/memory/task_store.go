package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/reportd/internal/domain"
	"github.com/phrazzld/reportd/internal/store"
)

// TaskStore implements the store.TaskStore interface with a mutex-guarded map.
// Every Create and Update runs under the write lock, so a patch is applied
// entirely or not at all and later reads observe it.
type TaskStore struct {
	mu     sync.RWMutex
	tasks  map[string]*domain.Task
	order  []string
	now    func() time.Time
	logger *slog.Logger
}

// Option customizes a TaskStore.
type Option func(*TaskStore)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *TaskStore) {
		s.now = now
	}
}

// NewTaskStore creates an empty TaskStore.
func NewTaskStore(logger *slog.Logger, opts ...Option) *TaskStore {
	s := &TaskStore{
		tasks:  make(map[string]*domain.Task),
		now:    time.Now,
		logger: logger.With("component", "memory_task_store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ store.TaskStore = (*TaskStore)(nil)

// Create inserts a pending task and returns its ID. It never fails.
func (s *TaskStore) Create(ctx context.Context, params domain.Params) (string, error) {
	task := domain.NewTask(params, s.now().UTC())

	s.mu.Lock()
	defer s.mu.Unlock()

	// IDs stay unique for the store's lifetime.
	for {
		if _, exists := s.tasks[task.ID]; !exists {
			break
		}
		task = domain.NewTask(params, task.CreatedAt)
	}

	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)

	s.logger.Debug("task created",
		"task_id", task.ID,
		"company", task.Company,
		"code", task.Code,
		"market", task.Market)
	return task.ID, nil
}

// Update merges the patch into the task if it exists.
func (s *TaskStore) Update(ctx context.Context, id string, patch store.TaskPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, exists := s.tasks[id]
	if !exists {
		s.logger.Debug("update for unknown task ignored", "task_id", id)
		return nil
	}

	if err := checkPatch(task, patch); err != nil {
		s.logger.Warn("rejected task update",
			"task_id", id,
			"status", task.Status,
			"error", err)
		return err
	}

	applyPatch(task, patch)
	return nil
}

// Get retrieves a copy of the task.
func (s *TaskStore) Get(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[id]
	if !exists {
		return nil, store.ErrTaskNotFound
	}
	return task.Clone(), nil
}

// List returns copies of all tasks in creation order, optionally filtered by status.
func (s *TaskStore) List(ctx context.Context, status *domain.TaskStatus) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Task, 0, len(s.order))
	for _, id := range s.order {
		task := s.tasks[id]
		if status != nil && task.Status != *status {
			continue
		}
		out = append(out, task.Clone())
	}
	return out, nil
}

// checkPatch validates a patch against the current record without mutating it.
func checkPatch(task *domain.Task, patch store.TaskPatch) error {
	if task.Status.IsTerminal() {
		return store.NewStoreError("task", "update",
			fmt.Sprintf("task %s is %s", task.ID, task.Status), store.ErrTaskTerminal)
	}

	if patch.Status != nil && *patch.Status != task.Status &&
		!domain.CanTransition(task.Status, *patch.Status) {
		return store.NewStoreError("task", "update",
			fmt.Sprintf("%s -> %s", task.Status, *patch.Status), store.ErrInvalidTransition)
	}

	if patch.Progress != nil {
		p := *patch.Progress
		if p < 0 || p > 100 {
			return store.NewStoreError("task", "update",
				fmt.Sprintf("progress %d out of range", p), store.ErrInvalidTransition)
		}
		if p < task.Progress {
			return store.NewStoreError("task", "update",
				fmt.Sprintf("progress %d -> %d", task.Progress, p), store.ErrInvalidTransition)
		}
	}

	return nil
}

// applyPatch copies the non-nil patch fields onto the task. Timestamps are set at most once.
func applyPatch(task *domain.Task, patch store.TaskPatch) {
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Progress != nil {
		task.Progress = *patch.Progress
	}
	if patch.StartedAt != nil && task.StartedAt == nil {
		v := *patch.StartedAt
		task.StartedAt = &v
	}
	if patch.CompletedAt != nil && task.CompletedAt == nil {
		v := *patch.CompletedAt
		task.CompletedAt = &v
	}
	if patch.Failure != nil {
		f := *patch.Failure
		task.Failure = &f
	}
	if patch.OutputPath != nil {
		task.OutputPath = *patch.OutputPath
	}
}

package service

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/phrazzld/reportd/internal/domain"
	"github.com/phrazzld/reportd/internal/store"
)

// Executor runs units of work in the background.
type Executor interface {
	// Go schedules unit and returns without waiting for it.
	Go(name string, unit func(ctx context.Context)) error
}

// Coordinator drives a single task to a terminal state.
type Coordinator interface {
	Run(ctx context.Context, id string, params domain.Params)
}

// ArtifactStore opens generated report files.
type ArtifactStore interface {
	Open(path string) (*os.File, fs.FileInfo, error)
}

// Artifact is an opened report ready to be streamed. The caller closes Content.
type Artifact struct {
	Name    string
	Size    int64
	ModTime time.Time
	Content io.ReadSeekCloser
}

// ReportService is the boundary for report tasks: submission, inspection,
// cancellation and artifact retrieval. Scheduled firings use Submit too.
type ReportService interface {
	// Submit creates a pending task and hands it to the executor. It returns
	// once the task is queued, never waiting for generation.
	Submit(ctx context.Context, params domain.Params) (string, error)

	// GetTask returns the task or store.ErrTaskNotFound.
	GetTask(ctx context.Context, id string) (*domain.Task, error)

	// ListTasks returns every task, or only those with the given status.
	ListTasks(ctx context.Context, status *domain.TaskStatus) ([]*domain.Task, error)

	// CancelTask moves a pending task to cancelled. Any other status yields
	// store.ErrTaskNotPending and leaves the task unchanged.
	CancelTask(ctx context.Context, id string) error

	// OpenArtifact opens a completed task's report.
	OpenArtifact(ctx context.Context, id string) (*Artifact, error)
}

type reportServiceImpl struct {
	tasks       store.TaskStore
	executor    Executor
	coordinator Coordinator
	artifacts   ArtifactStore
	logger      *slog.Logger
}

// NewReportService creates a ReportService.
// It returns an error if any of the required dependencies are nil.
func NewReportService(
	tasks store.TaskStore,
	executor Executor,
	coordinator Coordinator,
	artifacts ArtifactStore,
	logger *slog.Logger,
) (ReportService, error) {
	switch {
	case tasks == nil:
		return nil, &ReportServiceError{Operation: "create_service", Message: "tasks cannot be nil"}
	case executor == nil:
		return nil, &ReportServiceError{Operation: "create_service", Message: "executor cannot be nil"}
	case coordinator == nil:
		return nil, &ReportServiceError{Operation: "create_service", Message: "coordinator cannot be nil"}
	case artifacts == nil:
		return nil, &ReportServiceError{Operation: "create_service", Message: "artifacts cannot be nil"}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &reportServiceImpl{
		tasks:       tasks,
		executor:    executor,
		coordinator: coordinator,
		artifacts:   artifacts,
		logger:      logger.With("component", "report_service"),
	}, nil
}

func (s *reportServiceImpl) Submit(ctx context.Context, params domain.Params) (string, error) {
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	id, err := s.tasks.Create(ctx, params)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create task", "error", err)
		return "", NewReportServiceError("submit", "failed to create task", err)
	}

	err = s.executor.Go("report:"+id, func(runCtx context.Context) {
		s.coordinator.Run(runCtx, id, params)
	})
	if err != nil {
		// Never leave a task pending that nothing will pick up.
		cancelled := domain.TaskStatusCancelled
		if cancelErr := s.tasks.Update(ctx, id, store.TaskPatch{Status: &cancelled}); cancelErr != nil {
			s.logger.ErrorContext(ctx, "failed to cancel undispatched task",
				"task_id", id,
				"error", cancelErr)
		}
		s.logger.WarnContext(ctx, "task rejected by executor", "task_id", id, "error", err)
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s.logger.InfoContext(ctx, "task submitted",
		"task_id", id,
		"company", params.Company,
		"code", params.Code,
		"market", params.Market)
	return id, nil
}

func (s *reportServiceImpl) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, NewReportServiceError("get_task", "failed to get task", err)
	}
	return task, nil
}

func (s *reportServiceImpl) ListTasks(ctx context.Context, status *domain.TaskStatus) ([]*domain.Task, error) {
	tasks, err := s.tasks.List(ctx, status)
	if err != nil {
		return nil, NewReportServiceError("list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

func (s *reportServiceImpl) CancelTask(ctx context.Context, id string) error {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return NewReportServiceError("cancel_task", "failed to get task", err)
	}
	if task.Status != domain.TaskStatusPending {
		return fmt.Errorf("%w: status is %s", store.ErrTaskNotPending, task.Status)
	}

	cancelled := domain.TaskStatusCancelled
	if err := s.tasks.Update(ctx, id, store.TaskPatch{Status: &cancelled}); err != nil {
		// Lost the race against the coordinator starting the task.
		if store.IsPreconditionError(err) {
			return fmt.Errorf("%w: task started before it could be cancelled", store.ErrTaskNotPending)
		}
		return NewReportServiceError("cancel_task", "failed to cancel task", err)
	}

	s.logger.InfoContext(ctx, "task cancelled", "task_id", id)
	return nil
}

func (s *reportServiceImpl) OpenArtifact(ctx context.Context, id string) (*Artifact, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, NewReportServiceError("open_artifact", "failed to get task", err)
	}
	if task.Status != domain.TaskStatusCompleted {
		return nil, fmt.Errorf("%w: status is %s", store.ErrTaskNotCompleted, task.Status)
	}

	f, info, err := s.artifacts.Open(task.OutputPath)
	if err != nil {
		s.logger.WarnContext(ctx, "artifact unavailable",
			"task_id", id,
			"output_path", task.OutputPath,
			"error", err)
		return nil, NewReportServiceError("open_artifact", "failed to open artifact", err)
	}

	return &Artifact{
		Name:    filepath.Base(task.OutputPath),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Content: f,
	}, nil
}

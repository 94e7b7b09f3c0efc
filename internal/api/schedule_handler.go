package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/reportd/internal/api/shared"
	"github.com/phrazzld/reportd/internal/domain"
	"github.com/phrazzld/reportd/internal/platform/logger"
)

// JobScheduler is the subset of the recurring scheduler the HTTP layer needs.
type JobScheduler interface {
	Upsert(ctx context.Context, job domain.ScheduledJob) error
	Remove(ctx context.Context, name string) error
	List(ctx context.Context) []domain.ScheduledJobInfo
}

// ScheduleHandler manages named recurring report jobs.
type ScheduleHandler struct {
	scheduler JobScheduler
	logger    *slog.Logger
}

// NewScheduleHandler creates a new ScheduleHandler
func NewScheduleHandler(scheduler JobScheduler, logger *slog.Logger) *ScheduleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleHandler{
		scheduler: scheduler,
		logger:    logger.With(slog.String("component", "schedule_handler")),
	}
}

// Create handles POST /api/scheduled-tasks. Reusing a task_name replaces the job.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ScheduledTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	job := req.Job()
	if err := h.scheduler.Upsert(r.Context(), job); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	logger.FromContext(r.Context(), h.logger).Info("scheduled task saved",
		slog.String("task_name", job.Name),
		slog.String("cron", job.Trigger))

	shared.RespondWithJSON(w, r, http.StatusOK, ScheduledTaskCreatedResponse{
		Message:  fmt.Sprintf("Scheduled task %s created", job.Name),
		TaskName: job.Name,
		Cron:     job.Trigger,
	})
}

// List handles GET /api/scheduled-tasks
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	infos := h.scheduler.List(r.Context())
	resp := ScheduledTaskListResponse{Tasks: make([]ScheduledTaskResponse, 0, len(infos))}
	for _, info := range infos {
		resp.Tasks = append(resp.Tasks, jobToResponse(info))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Delete handles DELETE /api/scheduled-tasks/{name}
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.scheduler.Remove(r.Context(), name); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{
		Message: fmt.Sprintf("Scheduled task %s removed", name),
	})
}

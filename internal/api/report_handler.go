package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/reportd/internal/api/shared"
	"github.com/phrazzld/reportd/internal/domain"
	"github.com/phrazzld/reportd/internal/platform/logger"
	"github.com/phrazzld/reportd/internal/service"
)

// ReportHandler serves report submission, task inspection and artifact download.
type ReportHandler struct {
	reportService service.ReportService
	logger        *slog.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService service.ReportService, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		reportService: reportService,
		logger:        logger.With(slog.String("component", "report_handler")),
	}
}

// Generate handles POST /api/reports/generate.
// The task is queued and 202 Accepted is returned before any work starts.
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateReportRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	params := req.Params()
	id, err := h.reportService.Submit(r.Context(), params)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	logger.FromContext(r.Context(), h.logger).Info("report task accepted",
		slog.String("task_id", id),
		slog.String("company", params.Company),
		slog.String("code", params.Code))

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitResponse{
		TaskID:  id,
		Status:  "accepted",
		Message: fmt.Sprintf("Report generation started for %s (%s)", params.Company, params.Code),
	})
}

// GetTask handles GET /api/tasks/{id}
func (h *ReportHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.reportService.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// ListTasks handles GET /api/tasks with an optional ?status= filter.
func (h *ReportHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	var filter *domain.TaskStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := domain.ParseTaskStatus(raw)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid status filter", err)
			return
		}
		filter = &status
	}

	tasks, err := h.reportService.ListTasks(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	resp := TaskListResponse{Tasks: make([]TaskResponse, 0, len(tasks)), Total: len(tasks)}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, taskToResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// CancelTask handles POST /api/tasks/{id}/cancel. Only pending tasks can be cancelled.
func (h *ReportHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.reportService.CancelTask(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{
		Message: fmt.Sprintf("Task %s cancelled", id),
	})
}

// Download handles GET /api/reports/{id}/download and streams the artifact
// of a completed task as an attachment.
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.reportService.OpenArtifact(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	defer func() {
		if cerr := artifact.Content.Close(); cerr != nil {
			logger.FromContext(r.Context(), h.logger).Warn("failed to close artifact",
				slog.String("name", artifact.Name),
				slog.String("error", cerr.Error()))
		}
	}()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	http.ServeContent(w, r, artifact.Name, artifact.ModTime, artifact.Content)
}

func (h *ReportHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var serviceErr *service.ReportServiceError
	if errors.As(err, &serviceErr) {
		logger.FromContext(r.Context(), h.logger).Debug("report service error",
			slog.String("operation", serviceErr.Operation))
	}
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}

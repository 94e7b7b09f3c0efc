package api

import (
	"time"

	"github.com/phrazzld/reportd/internal/domain"
)

// GenerateReportRequest is the body of POST /api/reports/generate.
// Market defaults to HK when omitted.
type GenerateReportRequest struct {
	Company string `json:"company" validate:"required,max=200"`
	Code    string `json:"code"    validate:"required,max=32"`
	Market  string `json:"market"  validate:"max=16"`
}

// Params converts the request into generation parameters.
func (r GenerateReportRequest) Params() domain.Params {
	return domain.Params{Company: r.Company, Code: r.Code, Market: r.Market}.Normalize()
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// FailureResponse describes why a task failed.
type FailureResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// TaskResponse is the client view of a task. Error mirrors Failure.Message
// for clients that only read the flat field.
type TaskResponse struct {
	ID          string           `json:"id"`
	Company     string           `json:"company"`
	Code        string           `json:"code"`
	Market      string           `json:"market"`
	Status      string           `json:"status"`
	Progress    int              `json:"progress"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   *time.Time       `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at"`
	Error       *string          `json:"error"`
	Failure     *FailureResponse `json:"failure,omitempty"`
	OutputPath  *string          `json:"output_path"`
}

// TaskListResponse is the body of GET /api/tasks.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

// ScheduledTaskRequest is the body of POST /api/scheduled-tasks.
type ScheduledTaskRequest struct {
	TaskName       string `json:"task_name"       validate:"required,max=100"`
	CronExpression string `json:"cron_expression" validate:"required"`
	Company        string `json:"company"         validate:"required,max=200"`
	Code           string `json:"code"            validate:"required,max=32"`
	Market         string `json:"market"          validate:"max=16"`
}

// Job converts the request into a scheduled job definition.
func (r ScheduledTaskRequest) Job() domain.ScheduledJob {
	return domain.ScheduledJob{
		Name:    r.TaskName,
		Trigger: r.CronExpression,
		Params:  domain.Params{Company: r.Company, Code: r.Code, Market: r.Market}.Normalize(),
	}
}

// ScheduledTaskCreatedResponse acknowledges an upsert.
type ScheduledTaskCreatedResponse struct {
	Message  string `json:"message"`
	TaskName string `json:"task_name"`
	Cron     string `json:"cron"`
}

// ScheduledTaskResponse is one entry of the scheduled job listing.
type ScheduledTaskResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CronExpression string    `json:"cron_expression"`
	Company        string    `json:"company"`
	Code           string    `json:"code"`
	Market         string    `json:"market"`
	NextRunTime    time.Time `json:"next_run_time"`
}

// ScheduledTaskListResponse is the body of GET /api/scheduled-tasks.
type ScheduledTaskListResponse struct {
	Tasks []ScheduledTaskResponse `json:"tasks"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// taskToResponse converts a domain.Task to a TaskResponse
func taskToResponse(t *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		Company:     t.Company,
		Code:        t.Code,
		Market:      t.Market,
		Status:      string(t.Status),
		Progress:    t.Progress,
		CreatedAt:   t.CreatedAt,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
	}
	if t.Failure != nil {
		msg := t.Failure.Message
		resp.Error = &msg
		resp.Failure = &FailureResponse{Kind: string(t.Failure.Kind), Message: msg}
	}
	if t.OutputPath != "" {
		path := t.OutputPath
		resp.OutputPath = &path
	}
	return resp
}

// jobToResponse converts a scheduled job listing entry to its response form
func jobToResponse(info domain.ScheduledJobInfo) ScheduledTaskResponse {
	return ScheduledTaskResponse{
		ID:             info.Job.Name,
		Name:           info.Job.DisplayName(),
		CronExpression: info.Job.Trigger,
		Company:        info.Job.Params.Company,
		Code:           info.Job.Params.Code,
		Market:         info.Job.Params.Market,
		NextRunTime:    info.NextRunAt,
	}
}

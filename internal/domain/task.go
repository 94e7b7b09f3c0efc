package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a report generation task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// DefaultMarket is used when a request does not name a market.
const DefaultMarket = "HK"

// Task validation errors
var (
	ErrTaskIDEmpty       = errors.New("task ID cannot be empty")
	ErrTaskCompanyEmpty  = errors.New("task company cannot be empty")
	ErrTaskCodeEmpty     = errors.New("task code cannot be empty")
	ErrInvalidTaskStatus = errors.New("invalid task status")
)

// transitions lists every legal status change. Anything not listed is a defect.
var transitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending: {TaskStatusRunning, TaskStatusCancelled},
	TaskStatusRunning: {TaskStatusCompleted, TaskStatusFailed},
}

// Params are the generation parameters forwarded untouched to the collaborator.
type Params struct {
	Company string `json:"company"`
	Code    string `json:"code"`
	Market  string `json:"market"`
}

// Normalize trims whitespace and applies the default market.
func (p Params) Normalize() Params {
	p.Company = strings.TrimSpace(p.Company)
	p.Code = strings.TrimSpace(p.Code)
	p.Market = strings.TrimSpace(p.Market)
	if p.Market == "" {
		p.Market = DefaultMarket
	}
	return p
}

// Validate checks that the parameters can be handed to a generator.
func (p Params) Validate() error {
	if p.Company == "" {
		return ErrTaskCompanyEmpty
	}
	if p.Code == "" {
		return ErrTaskCodeEmpty
	}
	return nil
}

// Task is one submitted or scheduled request to produce a report artifact.
// Timestamps are nil until the corresponding lifecycle point is reached.
type Task struct {
	ID          string     `json:"id"`
	Company     string     `json:"company"`
	Code        string     `json:"code"`
	Market      string     `json:"market"`
	Status      TaskStatus `json:"status"`
	Progress    int        `json:"progress"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Failure     *Failure   `json:"failure,omitempty"`
	OutputPath  string     `json:"output_path,omitempty"`
}

// NewTask creates a pending task with a fresh ID and zero progress.
func NewTask(params Params, now time.Time) *Task {
	return &Task{
		ID:        uuid.NewString(),
		Company:   params.Company,
		Code:      params.Code,
		Market:    params.Market,
		Status:    TaskStatusPending,
		Progress:  0,
		CreatedAt: now,
	}
}

// Params returns the generation parameters the task was created with.
func (t *Task) Params() Params {
	return Params{Company: t.Company, Code: t.Code, Market: t.Market}
}

// Error returns the failure message, or "" when the task has not failed.
func (t *Task) Error() string {
	if t.Failure == nil {
		return ""
	}
	return t.Failure.Message
}

// Clone returns a deep copy so callers never share the store's record.
func (t *Task) Clone() *Task {
	c := *t
	if t.StartedAt != nil {
		v := *t.StartedAt
		c.StartedAt = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	if t.Failure != nil {
		f := *t.Failure
		c.Failure = &f
	}
	return &c
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == "" {
		return ErrTaskIDEmpty
	}
	if err := t.Params().Validate(); err != nil {
		return err
	}
	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}
	return nil
}

// IsValid reports whether s is one of the known statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted,
		TaskStatusFailed, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is legal from s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

// CanTransition reports whether moving a task from one status to another is legal.
func CanTransition(from, to TaskStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseTaskStatus converts a raw filter value into a TaskStatus.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", ErrInvalidTaskStatus
	}
	return s, nil
}

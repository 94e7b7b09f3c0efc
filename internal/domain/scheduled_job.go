package domain

import (
	"errors"
	"strings"
	"time"
)

// Scheduled job validation errors
var (
	ErrJobNameEmpty    = errors.New("scheduled job name cannot be empty")
	ErrJobTriggerEmpty = errors.New("scheduled job trigger cannot be empty")
)

// ScheduledJob is a named recurrence rule that submits a new task with fixed
// parameters every time its trigger fires. The name is the upsert/removal key.
type ScheduledJob struct {
	Name    string `json:"name"`
	Trigger string `json:"cron_expression"`
	Params  Params `json:"params"`
}

// Validate checks the job definition, not the trigger syntax.
func (j ScheduledJob) Validate() error {
	if strings.TrimSpace(j.Name) == "" {
		return ErrJobNameEmpty
	}
	if strings.TrimSpace(j.Trigger) == "" {
		return ErrJobTriggerEmpty
	}
	return j.Params.Validate()
}

// DisplayName is the human label shown in listings.
func (j ScheduledJob) DisplayName() string {
	return j.Name + " - " + j.Params.Company
}

// ScheduledJobInfo is a listing entry: the job plus when it fires next.
type ScheduledJobInfo struct {
	Job       ScheduledJob
	NextRunAt time.Time
}

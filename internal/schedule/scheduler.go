// Package schedule holds named recurring jobs and submits a new report task
// each time a job's cron trigger fires.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/phrazzld/reportd/internal/domain"
	"github.com/phrazzld/reportd/internal/store"
)

// Dispatcher submits a task through the same path interactive requests use.
// Submit must return as soon as the task is handed off.
type Dispatcher interface {
	Submit(ctx context.Context, params domain.Params) (string, error)
}

// parser accepts standard five-field expressions and descriptors such as
// @daily and @every 1h.
var parser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type entry struct {
	job      domain.ScheduledJob
	schedule cron.Schedule
	id       cron.EntryID
}

// Scheduler is the recurring-job registry. It is safe for concurrent use.
type Scheduler struct {
	cron       *cron.Cron
	dispatcher Dispatcher
	location   *time.Location
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.Mutex
	jobs    map[string]*entry
	running bool
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithLocation evaluates triggers in loc instead of time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.location = loc }
}

// WithClock overrides the clock used to compute next fire times before Start.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a stopped Scheduler that dispatches firings to dispatcher.
func New(dispatcher Dispatcher, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		dispatcher: dispatcher,
		location:   time.Local,
		logger:     logger.With("component", "scheduler"),
		now:        time.Now,
		jobs:       make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLocation(s.location),
		cron.WithLogger(cronLogger{logger: s.logger}),
		cron.WithChain(cron.Recover(cronLogger{logger: s.logger})),
	)
	return s
}

// ParseTrigger validates a trigger expression.
func ParseTrigger(expr string) (cron.Schedule, error) {
	schedule, err := parser.Parse(strings.TrimSpace(expr))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", store.ErrInvalidTrigger, expr, err)
	}
	return schedule, nil
}

// Upsert registers job, replacing any job with the same name. The job's
// parameters are normalized first.
func (s *Scheduler) Upsert(ctx context.Context, job domain.ScheduledJob) error {
	job.Name = strings.TrimSpace(job.Name)
	job.Trigger = strings.TrimSpace(job.Trigger)
	job.Params = job.Params.Normalize()
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidJob, err)
	}

	schedule, err := ParseTrigger(job.Trigger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	if old, ok := s.jobs[job.Name]; ok {
		s.cron.Remove(old.id)
		replaced = true
	}

	e := &entry{job: job, schedule: schedule}
	e.id = s.cron.Schedule(schedule, cron.FuncJob(func() { s.fire(job) }))
	s.jobs[job.Name] = e

	s.logger.InfoContext(ctx, "scheduled job registered",
		"job", job.Name,
		"trigger", job.Trigger,
		"replaced", replaced,
		"company", job.Params.Company)
	return nil
}

// Remove deletes the named job. Unknown names yield store.ErrJobNotFound.
func (s *Scheduler) Remove(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %q", store.ErrJobNotFound, name)
	}
	s.cron.Remove(e.id)
	delete(s.jobs, name)

	s.logger.InfoContext(ctx, "scheduled job removed", "job", name)
	return nil
}

// List returns every job with its next fire time, sorted by name.
func (s *Scheduler) List(ctx context.Context) []domain.ScheduledJobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().In(s.location)
	infos := make([]domain.ScheduledJobInfo, 0, len(s.jobs))
	for _, e := range s.jobs {
		next := time.Time{}
		if s.running {
			next = s.cron.Entry(e.id).Next
		}
		if next.IsZero() {
			next = e.schedule.Next(now)
		}
		infos = append(infos, domain.ScheduledJobInfo{Job: e.job, NextRunAt: next})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Job.Name < infos[j].Job.Name })
	return infos
}

// Start begins firing jobs. It is a no-op when already running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started", "jobs", len(s.jobs), "location", s.location.String())
}

// Stop prevents new firings and waits for in-progress dispatches until ctx
// expires. Dispatch only hands work off, so the wait is short.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stopped := s.cron.Stop()
	s.mu.Unlock()

	select {
	case <-stopped.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fire submits one task for job. It runs on cron's goroutine and returns as
// soon as the dispatcher does.
func (s *Scheduler) fire(job domain.ScheduledJob) {
	ctx := context.Background()
	id, err := s.dispatcher.Submit(ctx, job.Params)
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled job dispatch failed",
			"job", job.Name,
			"error", err)
		return
	}
	s.logger.InfoContext(ctx, "scheduled job fired",
		"job", job.Name,
		"task_id", id)
}

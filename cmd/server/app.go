package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/reportd/internal/config"
	"github.com/phrazzld/reportd/internal/platform/artifact"
	"github.com/phrazzld/reportd/internal/platform/memory"
	"github.com/phrazzld/reportd/internal/platform/reportgen"
	"github.com/phrazzld/reportd/internal/schedule"
	"github.com/phrazzld/reportd/internal/service"
	"github.com/phrazzld/reportd/internal/store"
	"github.com/phrazzld/reportd/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	tasks         store.TaskStore
	executor      *task.Executor
	scheduler     *schedule.Scheduler
	reportService service.ReportService
}

// newApplication wires stores, collaborators, the executor, the service and
// the scheduler. Nothing is started; Run does that.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	app.tasks = memory.NewTaskStore(logger)

	factory, err := reportgen.NewFactory(context.Background(), cfg.Generator, cfg.Artifacts.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create report generator: %w", err)
	}
	logger.Info("report generator initialized", "kind", cfg.Generator.Kind, "output_dir", cfg.Artifacts.Dir)

	coordinator := task.NewCoordinator(app.tasks, factory, logger, task.WithTimeout(cfg.Task.Timeout))
	app.executor = task.NewExecutor(task.ExecutorConfig{MaxConcurrent: cfg.Task.MaxConcurrent}, logger)

	app.reportService, err = service.NewReportService(
		app.tasks,
		app.executor,
		coordinator,
		artifact.NewLocalFS(cfg.Artifacts.Dir),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create report service: %w", err)
	}

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduler timezone: %w", err)
	}
	app.scheduler = schedule.New(app.reportService, logger, schedule.WithLocation(loc))

	logger.Info("application initialized successfully")
	return app, nil
}

package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/reportd/internal/api"
	apiMiddleware "github.com/phrazzld/reportd/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(apiMiddleware.CORS)

	reportHandler := api.NewReportHandler(app.reportService, app.logger)
	scheduleHandler := api.NewScheduleHandler(app.scheduler, app.logger)
	healthHandler := api.NewHealthHandler(nil)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)

		r.Post("/reports/generate", reportHandler.Generate)
		r.Get("/reports/{id}/download", reportHandler.Download)

		r.Get("/tasks", reportHandler.ListTasks)
		r.Get("/tasks/{id}", reportHandler.GetTask)
		r.Post("/tasks/{id}/cancel", reportHandler.CancelTask)

		r.Post("/scheduled-tasks", scheduleHandler.Create)
		r.Get("/scheduled-tasks", scheduleHandler.List)
		r.Delete("/scheduled-tasks/{name}", scheduleHandler.Delete)
	})

	return r
}

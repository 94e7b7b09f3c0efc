// Package service contains the application-level use cases for report tasks.
// It orchestrates the task store, the background executor and the artifact
// store to fulfil submission, inspection, cancellation and download.
//
// The service layer depends on domain entities and interfaces only. Concrete
// infrastructure (the in-memory store, the executor, the local artifact store)
// is injected by cmd/server.
//
// Error handling:
//   - Store taxonomy errors (not found, precondition, configuration) are returned unchanged
//   - ErrInvalidParams and ErrUnavailable cover submission-specific failures
//   - Unexpected errors are wrapped in ReportServiceError
package service

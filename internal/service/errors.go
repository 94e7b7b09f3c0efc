package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/reportd/internal/store"
)

// Service sentinel errors. Store taxonomy errors (not found, precondition,
// configuration) pass through unchanged so callers can match them directly.
var (
	// ErrInvalidParams indicates a submission without a company or code.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidParams = errors.New("invalid report parameters")

	// ErrUnavailable indicates the service is shutting down and cannot accept work.
	// API layer should map this to HTTP 503 Service Unavailable.
	ErrUnavailable = errors.New("service is not accepting new tasks")
)

// ReportServiceError wraps unexpected errors from the report service with context.
type ReportServiceError struct {
	// Operation is the operation that failed (e.g., "submit", "cancel_task")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ReportServiceError.
func (e *ReportServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("report service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("report service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ReportServiceError) Unwrap() error {
	return e.Err
}

// NewReportServiceError creates a new ReportServiceError.
// It returns known sentinel errors directly without wrapping.
func NewReportServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrInvalidParams) || errors.Is(err, ErrUnavailable) {
		return err
	}
	if store.IsNotFoundError(err) || store.IsPreconditionError(err) || store.IsConfigurationError(err) {
		return err
	}

	return &ReportServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

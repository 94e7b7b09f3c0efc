package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/reportd/internal/service"
	"github.com/phrazzld/reportd/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Cancel on a non-pending task, download of an unfinished one
	case store.IsPreconditionError(err):
		return http.StatusConflict

	case store.IsConfigurationError(err),
		errors.Is(err, service.ErrInvalidParams):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrJobNotFound):
		return "Scheduled task not found"
	case errors.Is(err, store.ErrArtifactNotFound):
		return "Report file not found"

	case errors.Is(err, store.ErrTaskNotPending):
		return "Only pending tasks can be cancelled"
	case errors.Is(err, store.ErrTaskNotCompleted):
		return "Task has not completed"
	case store.IsPreconditionError(err):
		return "Operation not allowed in the task's current state"

	case errors.Is(err, store.ErrInvalidTrigger):
		return "Invalid cron expression"
	case errors.Is(err, store.ErrInvalidJob):
		return "Invalid scheduled task"
	case errors.Is(err, service.ErrInvalidParams):
		return "Company and code are required"

	case errors.Is(err, service.ErrUnavailable):
		return "Service is shutting down, try again later"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'GenerateReportRequest.Company' Error:Field validation for 'Company' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

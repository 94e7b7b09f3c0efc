package store

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every component. Callers match with errors.Is.
var (
	// ErrNotFound is returned when a referenced task, job or artifact does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrPrecondition is returned when an operation is invoked while the entity
	// is in a state that does not allow it. It is never retried.
	ErrPrecondition = errors.New("precondition failed")

	// ErrInvalidConfiguration is returned when a scheduling definition is
	// rejected (bad trigger expression, empty or unknown job name).
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// Entity-specific "not found" errors

	// ErrTaskNotFound indicates that the requested task does not exist in the store.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrJobNotFound indicates that no scheduled job has the given name.
	ErrJobNotFound = fmt.Errorf("%w: scheduled job", ErrNotFound)

	// ErrArtifactNotFound indicates that a completed task's output file is gone.
	ErrArtifactNotFound = fmt.Errorf("%w: artifact", ErrNotFound)

	// Entity-specific precondition errors

	// ErrInvalidTransition indicates a status change outside the task state machine,
	// or a progress value lower than the one already recorded.
	ErrInvalidTransition = fmt.Errorf("%w: invalid task transition", ErrPrecondition)

	// ErrTaskTerminal indicates a mutation attempted on a completed, failed or cancelled task.
	ErrTaskTerminal = fmt.Errorf("%w: task is in a terminal state", ErrPrecondition)

	// ErrTaskNotPending indicates a cancel on a task that already left pending.
	ErrTaskNotPending = fmt.Errorf("%w: task is not pending", ErrPrecondition)

	// ErrTaskNotCompleted indicates a download on a task that has not completed.
	ErrTaskNotCompleted = fmt.Errorf("%w: task is not completed", ErrPrecondition)

	// Entity-specific configuration errors

	// ErrInvalidTrigger indicates a trigger expression that cannot be parsed.
	ErrInvalidTrigger = fmt.Errorf("%w: trigger expression", ErrInvalidConfiguration)

	// ErrInvalidJob indicates a scheduled job definition with missing fields.
	ErrInvalidJob = fmt.Errorf("%w: scheduled job", ErrInvalidConfiguration)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPreconditionError checks if the error is any kind of precondition violation.
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

// IsConfigurationError checks if the error is a scheduling configuration error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "task", "scheduled job")
	Operation string // The operation that failed (e.g., "update", "remove")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

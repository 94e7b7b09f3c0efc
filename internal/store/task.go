package store

import (
	"context"
	"time"

	"github.com/phrazzld/reportd/internal/domain"
)

// TaskPatch is a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Status      *domain.TaskStatus
	Progress    *int
	StartedAt   *time.Time
	CompletedAt *time.Time
	Failure     *domain.Failure
	OutputPath  *string
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Status == nil && p.Progress == nil && p.StartedAt == nil &&
		p.CompletedAt == nil && p.Failure == nil && p.OutputPath == nil
}

// TaskStore defines the interface for task record storage.
// Implementations must be safe for concurrent use and make every Update atomic:
// a Get issued after Update returns observes the whole patch or none of it.
// Version: 1.0
type TaskStore interface {
	// Create inserts a pending task with zero progress and returns its ID.
	Create(ctx context.Context, params domain.Params) (string, error)

	// Update merges the patch into the task.
	// Returns nil without doing anything if the ID is unknown.
	// Returns ErrInvalidTransition if the patch would break the status machine
	// or lower the progress, and ErrTaskTerminal if the task is already terminal;
	// in both cases nothing is applied.
	Update(ctx context.Context, id string, patch TaskPatch) error

	// Get retrieves a copy of the task.
	// Returns ErrTaskNotFound if the task does not exist.
	Get(ctx context.Context, id string) (*domain.Task, error)

	// List returns copies of all tasks, or only those with the given status.
	List(ctx context.Context, status *domain.TaskStatus) ([]*domain.Task, error)
}

package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		err           error
		notFound      bool
		precondition  bool
		configuration bool
	}{
		{name: "nil error", err: nil},
		{name: "generic error", err: errors.New("some error")},
		{name: "ErrNotFound", err: ErrNotFound, notFound: true},
		{name: "ErrTaskNotFound", err: ErrTaskNotFound, notFound: true},
		{name: "wrapped ErrJobNotFound", err: fmt.Errorf("remove: %w", ErrJobNotFound), notFound: true},
		{name: "ErrArtifactNotFound", err: ErrArtifactNotFound, notFound: true},
		{name: "ErrInvalidTransition", err: ErrInvalidTransition, precondition: true},
		{name: "ErrTaskTerminal", err: ErrTaskTerminal, precondition: true},
		{name: "ErrTaskNotPending", err: ErrTaskNotPending, precondition: true},
		{name: "wrapped ErrTaskNotCompleted", err: fmt.Errorf("download: %w", ErrTaskNotCompleted), precondition: true},
		{name: "ErrInvalidTrigger", err: ErrInvalidTrigger, configuration: true},
		{name: "ErrInvalidJob", err: ErrInvalidJob, configuration: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.notFound, IsNotFoundError(tc.err))
			assert.Equal(t, tc.precondition, IsPreconditionError(tc.err))
			assert.Equal(t, tc.configuration, IsConfigurationError(tc.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	t.Run("with wrapped error", func(t *testing.T) {
		t.Parallel()
		err := NewStoreError("task", "update", "pending -> completed", ErrInvalidTransition)

		assert.Equal(t,
			"update operation on task failed: pending -> completed: precondition failed: invalid task transition",
			err.Error())
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.True(t, IsPreconditionError(err))

		var storeErr *StoreError
		assert.True(t, errors.As(fmt.Errorf("outer: %w", err), &storeErr))
		assert.Equal(t, "task", storeErr.Entity)
	})

	t.Run("without wrapped error", func(t *testing.T) {
		t.Parallel()
		err := NewStoreError("scheduled job", "remove", "no such job", nil)

		assert.Equal(t, "remove operation on scheduled job failed: no such job", err.Error())
		assert.Nil(t, err.Unwrap())
	})
}

func TestTaskPatchIsEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, TaskPatch{}.IsEmpty())

	progress := 10
	assert.False(t, TaskPatch{Progress: &progress}.IsEmpty())
}

package memory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/reportd/internal/domain"
	"github.com/phrazzld/reportd/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *TaskStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewTaskStore(logger)
}

func ptr[T any](v T) *T { return &v }

func acme() domain.Params {
	return domain.Params{Company: "Acme Corp", Code: "0001", Market: "HK"}
}

func TestTaskStore_CreateAndGet(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewTaskStore(logger, WithClock(func() time.Time { return created }))
	ctx := context.Background()

	id, err := s.Create(ctx, acme())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	task, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, task.ID)
	assert.Equal(t, acme(), task.Params())
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Zero(t, task.Progress)
	assert.Equal(t, created, task.CreatedAt)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestTaskStore_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	id, _ := s.Create(ctx, acme())

	task, err := s.Get(ctx, id)
	require.NoError(t, err)
	task.Status = domain.TaskStatusCompleted
	task.Progress = 100

	again, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, again.Status)
	assert.Zero(t, again.Progress)
}

func TestTaskStore_UpdateUnknownIsNoop(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	err := s.Update(context.Background(), "missing", store.TaskPatch{Progress: ptr(10)})
	assert.NoError(t, err)

	tasks, err := s.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskStore_UpdateLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	id, _ := s.Create(ctx, acme())
	started := time.Now().UTC()

	require.NoError(t, s.Update(ctx, id, store.TaskPatch{
		Status:    ptr(domain.TaskStatusRunning),
		StartedAt: &started,
	}))
	require.NoError(t, s.Update(ctx, id, store.TaskPatch{Progress: ptr(10)}))
	require.NoError(t, s.Update(ctx, id, store.TaskPatch{Progress: ptr(50)}))

	completed := started.Add(time.Second)
	require.NoError(t, s.Update(ctx, id, store.TaskPatch{
		Status:      ptr(domain.TaskStatusCompleted),
		Progress:    ptr(100),
		CompletedAt: &completed,
		OutputPath:  ptr("/reports/acme.md"),
	}))

	task, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	assert.Equal(t, 100, task.Progress)
	require.NotNil(t, task.StartedAt)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, started, *task.StartedAt)
	assert.Equal(t, completed, *task.CompletedAt)
	assert.Equal(t, "/reports/acme.md", task.OutputPath)
	assert.Nil(t, task.Failure)
}

func TestTaskStore_RejectsIllegalTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup []domain.TaskStatus
		next  domain.TaskStatus
		want  error
	}{
		{name: "pending to completed", next: domain.TaskStatusCompleted, want: store.ErrInvalidTransition},
		{name: "pending to failed", next: domain.TaskStatusFailed, want: store.ErrInvalidTransition},
		{
			name:  "running to cancelled",
			setup: []domain.TaskStatus{domain.TaskStatusRunning},
			next:  domain.TaskStatusCancelled,
			want:  store.ErrInvalidTransition,
		},
		{
			name:  "running to pending",
			setup: []domain.TaskStatus{domain.TaskStatusRunning},
			next:  domain.TaskStatusPending,
			want:  store.ErrInvalidTransition,
		},
		{
			name:  "cancelled to running",
			setup: []domain.TaskStatus{domain.TaskStatusCancelled},
			next:  domain.TaskStatusRunning,
			want:  store.ErrTaskTerminal,
		},
		{
			name:  "failed to completed",
			setup: []domain.TaskStatus{domain.TaskStatusRunning, domain.TaskStatusFailed},
			next:  domain.TaskStatusCompleted,
			want:  store.ErrTaskTerminal,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := newTestStore(t)
			ctx := context.Background()
			id, _ := s.Create(ctx, acme())
			for _, status := range tc.setup {
				require.NoError(t, s.Update(ctx, id, store.TaskPatch{Status: ptr(status)}))
			}
			before, _ := s.Get(ctx, id)

			err := s.Update(ctx, id, store.TaskPatch{
				Status:   ptr(tc.next),
				Progress: ptr(100),
			})
			assert.ErrorIs(t, err, tc.want)

			after, _ := s.Get(ctx, id)
			assert.Equal(t, before, after, "rejected patch must not be partially applied")
		})
	}
}

func TestTaskStore_TerminalTasksAreFrozen(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	id, _ := s.Create(ctx, acme())
	require.NoError(t, s.Update(ctx, id, store.TaskPatch{Status: ptr(domain.TaskStatusCancelled)}))

	err := s.Update(ctx, id, store.TaskPatch{OutputPath: ptr("/tmp/late.md")})
	assert.ErrorIs(t, err, store.ErrTaskTerminal)

	task, _ := s.Get(ctx, id)
	assert.Empty(t, task.OutputPath)
}

func TestTaskStore_ProgressIsMonotonic(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	id, _ := s.Create(ctx, acme())
	require.NoError(t, s.Update(ctx, id, store.TaskPatch{Status: ptr(domain.TaskStatusRunning)}))
	require.NoError(t, s.Update(ctx, id, store.TaskPatch{Progress: ptr(50)}))

	assert.ErrorIs(t, s.Update(ctx, id, store.TaskPatch{Progress: ptr(10)}), store.ErrInvalidTransition)
	assert.ErrorIs(t, s.Update(ctx, id, store.TaskPatch{Progress: ptr(101)}), store.ErrInvalidTransition)
	assert.NoError(t, s.Update(ctx, id, store.TaskPatch{Progress: ptr(50)}))

	task, _ := s.Get(ctx, id)
	assert.Equal(t, 50, task.Progress)
}

func TestTaskStore_TimestampsSetOnce(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	id, _ := s.Create(ctx, acme())
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	require.NoError(t, s.Update(ctx, id, store.TaskPatch{
		Status:    ptr(domain.TaskStatusRunning),
		StartedAt: &first,
	}))
	require.NoError(t, s.Update(ctx, id, store.TaskPatch{StartedAt: &second}))

	task, _ := s.Get(ctx, id)
	assert.Equal(t, first, *task.StartedAt)
}

func TestTaskStore_ListFilter(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 6; i++ {
		id, _ := s.Create(ctx, domain.Params{Company: fmt.Sprintf("Co %d", i), Code: "0001", Market: "HK"})
		ids = append(ids, id)
	}
	require.NoError(t, s.Update(ctx, ids[1], store.TaskPatch{Status: ptr(domain.TaskStatusRunning)}))
	require.NoError(t, s.Update(ctx, ids[2], store.TaskPatch{Status: ptr(domain.TaskStatusCancelled)}))
	require.NoError(t, s.Update(ctx, ids[3], store.TaskPatch{Status: ptr(domain.TaskStatusRunning)}))
	require.NoError(t, s.Update(ctx, ids[3], store.TaskPatch{Status: ptr(domain.TaskStatusFailed)}))

	all, err := s.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 6)
	for i, task := range all {
		assert.Equal(t, ids[i], task.ID, "list keeps creation order")
	}

	statuses := []domain.TaskStatus{
		domain.TaskStatusPending, domain.TaskStatusRunning, domain.TaskStatusCompleted,
		domain.TaskStatusFailed, domain.TaskStatusCancelled,
	}
	for _, status := range statuses {
		filtered, err := s.List(ctx, ptr(status))
		require.NoError(t, err)

		var want []string
		for _, task := range all {
			if task.Status == status {
				want = append(want, task.ID)
			}
		}
		var got []string
		for _, task := range filtered {
			got = append(got, task.ID)
		}
		assert.Equal(t, want, got, "filter %s", status)
	}
}

func TestTaskStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	const workers = 50
	ids := make(chan string, workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Create(ctx, acme())
			if err != nil {
				return
			}
			_ = s.Update(ctx, id, store.TaskPatch{Status: ptr(domain.TaskStatusRunning)})
			for _, p := range []int{10, 50, 100} {
				_ = s.Update(ctx, id, store.TaskPatch{Progress: ptr(p)})
				_, _ = s.List(ctx, nil)
			}
			_ = s.Update(ctx, id, store.TaskPatch{Status: ptr(domain.TaskStatusCompleted)})
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true

		task, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, task.Status)
		assert.Equal(t, 100, task.Progress)
	}
	assert.Len(t, seen, workers)
}

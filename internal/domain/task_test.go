package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	t.Run("generates an id when none is supplied", func(t *testing.T) {
		task, err := NewTask("", "Check pending orders", "mkt-1")
		require.NoError(t, err)
		assert.NotEmpty(t, task.ID)
		assert.Equal(t, TaskStatusTodo, task.Status)
		assert.Equal(t, PriorityMedium, task.Priority)
	})

	t.Run("keeps a client-supplied id", func(t *testing.T) {
		task, err := NewTask("task-42", "Check pending orders", "mkt-1")
		require.NoError(t, err)
		assert.Equal(t, "task-42", task.ID)
	})

	t.Run("requires a title", func(t *testing.T) {
		_, err := NewTask("", "", "mkt-1")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("requires a marketplace reference", func(t *testing.T) {
		_, err := NewTask("", "Check pending orders", "")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestTaskStart(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("moves todo to in-progress and records timestamps", func(t *testing.T) {
		task := newTestTask(t)

		err := task.Start(now)
		require.NoError(t, err)

		assert.Equal(t, TaskStatusInProgress, task.Status)
		require.NotNil(t, task.StartedAt)
		assert.Equal(t, now, *task.StartedAt)
		require.NotNil(t, task.LastStartedAt)
		assert.Equal(t, now, *task.LastStartedAt)
	})

	t.Run("does not overwrite the first start on resume", func(t *testing.T) {
		task := newTestTask(t)

		require.NoError(t, task.Start(now))
		task.Pause(now.Add(10 * time.Minute))

		resume := now.Add(30 * time.Minute)
		require.NoError(t, task.Start(resume))

		assert.Equal(t, now, *task.StartedAt, "StartedAt must keep the first start")
		assert.Equal(t, resume, *task.LastStartedAt)
	})

	t.Run("rejects starting an in-progress task", func(t *testing.T) {
		task := newTestTask(t)
		require.NoError(t, task.Start(now))

		err := task.Start(now.Add(time.Minute))
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("rejects starting a completed task", func(t *testing.T) {
		task := newTestTask(t)
		task.Complete(now)

		err := task.Start(now.Add(time.Minute))
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestTaskComplete(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("completes from todo without accumulating time", func(t *testing.T) {
		task := newTestTask(t)

		task.Complete(now)

		assert.Equal(t, TaskStatusCompleted, task.Status)
		require.NotNil(t, task.CompletedAt)
		assert.Equal(t, now, *task.CompletedAt)
		assert.Zero(t, task.ActualTime)
	})

	t.Run("completes from in-progress and banks elapsed minutes", func(t *testing.T) {
		task := newTestTask(t)
		require.NoError(t, task.Start(now))

		task.Complete(now.Add(25 * time.Minute))

		assert.Equal(t, TaskStatusCompleted, task.Status)
		assert.Equal(t, 25, task.ActualTime)
	})

	t.Run("sets CompletedAt exactly once", func(t *testing.T) {
		task := newTestTask(t)
		task.Complete(now)
		first := *task.CompletedAt

		task.Complete(now.Add(time.Hour))

		assert.Equal(t, TaskStatusCompleted, task.Status)
		assert.Equal(t, first, *task.CompletedAt, "CompletedAt must not move on repeat completion")
	})
}

func TestTaskPause(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("returns an in-progress task to todo and accumulates time", func(t *testing.T) {
		task := newTestTask(t)
		require.NoError(t, task.Start(now))

		task.Pause(now.Add(15 * time.Minute))

		assert.Equal(t, TaskStatusTodo, task.Status)
		assert.Equal(t, 15, task.ActualTime)
	})

	t.Run("elapsed time is additive across start and pause cycles", func(t *testing.T) {
		task := newTestTask(t)

		require.NoError(t, task.Start(now))
		task.Pause(now.Add(10 * time.Minute))

		require.NoError(t, task.Start(now.Add(time.Hour)))
		task.Pause(now.Add(time.Hour + 20*time.Minute))

		assert.Equal(t, 30, task.ActualTime)
	})

	t.Run("is a no-op on a todo task", func(t *testing.T) {
		task := newTestTask(t)
		before := task.UpdatedAt

		task.Pause(now)

		assert.Equal(t, TaskStatusTodo, task.Status)
		assert.Zero(t, task.ActualTime)
		assert.Equal(t, before, task.UpdatedAt)
	})

	t.Run("is a no-op on a completed task", func(t *testing.T) {
		task := newTestTask(t)
		task.Complete(now)

		task.Pause(now.Add(time.Minute))

		assert.Equal(t, TaskStatusCompleted, task.Status)
	})

	t.Run("idle time between pause and resume is not counted", func(t *testing.T) {
		task := newTestTask(t)

		require.NoError(t, task.Start(now))
		task.Pause(now.Add(10 * time.Minute))

		// Long idle gap, then a short second session.
		require.NoError(t, task.Start(now.Add(8*time.Hour)))
		task.Complete(now.Add(8*time.Hour + 5*time.Minute))

		assert.Equal(t, 15, task.ActualTime)
	})
}

func TestTaskIsOverdue(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		due     *time.Time
		status  TaskStatus
		overdue bool
	}{
		{"due in the past and not completed", &past, TaskStatusTodo, true},
		{"due in the past but in progress", &past, TaskStatusInProgress, true},
		{"due in the past and completed", &past, TaskStatusCompleted, false},
		{"due in the future", &future, TaskStatusTodo, false},
		{"no due date", nil, TaskStatusTodo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := newTestTask(t)
			task.DueDate = tt.due
			task.Status = tt.status
			assert.Equal(t, tt.overdue, task.IsOverdue(now))
		})
	}
}

func newTestTask(t *testing.T) *Task {
	t.Helper()
	task, err := NewTask("", "Check pending orders", "mkt-1")
	require.NoError(t, err)
	return task
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the stored lifecycle state of a task. "Overdue" is
// intentionally absent: it is a derived view (see Task.IsOverdue), never
// a stored status.
type TaskStatus string

// Valid task status values.
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// IsValid reports whether the status is one of the known values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Task is a concrete, dated unit of work against a marketplace, either
// created ad hoc or materialized from a routine execution. RoutineID is
// a weak back-reference used for grouping and statistics only: deleting
// the routine neither deletes nor blocks on its tasks.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	MarketplaceID string     `json:"marketplace"`
	RoutineID     *int64     `json:"routineId,omitempty"`
	Category      string     `json:"category,omitempty"`
	Priority      Priority   `json:"priority"`
	Status        TaskStatus `json:"status"`
	AssigneeID    *int64     `json:"assigneeId,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	EstimatedTime int        `json:"estimatedTime,omitempty"`
	ActualTime    int        `json:"actualTime"`
	Links         []string   `json:"links"`
	Notes         string     `json:"notes,omitempty"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`

	// LastStartedAt marks the most recent transition into in-progress.
	// It is the accumulation anchor for ActualTime across start/pause
	// cycles; StartedAt keeps the historical first start and is set
	// exactly once.
	LastStartedAt *time.Time `json:"-"`
}

// NewTask creates a new Task with the given title and marketplace
// reference. An empty id is replaced with a generated UUID. The task
// starts in the todo state with medium priority.
// Returns an error if validation fails.
func NewTask(id, title, marketplaceID string) (*Task, error) {
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC()
	t := &Task{
		ID:            id,
		Title:         title,
		MarketplaceID: marketplaceID,
		Priority:      PriorityMedium,
		Status:        TaskStatusTodo,
		Links:         []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

// Validate checks if the Task has valid data.
// Returns a ValidationError if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == "" {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if t.Title == "" {
		return NewValidationError("title", "is required", nil)
	}
	if t.MarketplaceID == "" {
		return NewValidationError("marketplace", "is required", nil)
	}
	if t.Status != "" && !t.Status.IsValid() {
		return NewValidationError("status", "must be todo, in-progress, or completed", nil)
	}
	if t.Priority != "" && !t.Priority.IsValid() {
		return NewValidationError("priority", "must be low, medium, or high", nil)
	}
	return nil
}

// Start transitions the task from todo to in-progress at the given
// instant. StartedAt is recorded only on the first start; LastStartedAt
// is updated on every start so elapsed time accumulates correctly
// across pause/resume cycles.
// Returns ErrInvalidTransition if the task is not in the todo state.
func (t *Task) Start(now time.Time) error {
	if t.Status != TaskStatusTodo {
		return NewValidationError("status", "only todo tasks can be started", ErrInvalidTransition)
	}

	t.Status = TaskStatusInProgress
	if t.StartedAt == nil {
		started := now
		t.StartedAt = &started
	}
	last := now
	t.LastStartedAt = &last
	t.UpdatedAt = now
	return nil
}

// Complete transitions the task into the completed state at the given
// instant. It is idempotent in effect: completing an already-completed
// task leaves it unchanged, and CompletedAt is set exactly once, on the
// first transition. A task completed from in-progress accumulates the
// minutes elapsed since its last start.
func (t *Task) Complete(now time.Time) {
	if t.Status == TaskStatusCompleted {
		return
	}

	if t.Status == TaskStatusInProgress {
		t.accumulate(now)
	}

	t.Status = TaskStatusCompleted
	completed := now
	t.CompletedAt = &completed
	t.UpdatedAt = now
}

// Pause returns an in-progress task to todo, banking the minutes
// elapsed since the last start into ActualTime. Pausing a task that is
// not in progress is a no-op: the original system silently ignored it,
// and callers rely on that.
func (t *Task) Pause(now time.Time) {
	if t.Status != TaskStatusInProgress {
		return
	}

	t.accumulate(now)
	t.Status = TaskStatusTodo
	t.UpdatedAt = now
}

// accumulate adds the whole minutes elapsed since the last start to
// ActualTime and clears the accumulation anchor.
func (t *Task) accumulate(now time.Time) {
	if t.LastStartedAt == nil {
		return
	}
	if elapsed := now.Sub(*t.LastStartedAt); elapsed > 0 {
		t.ActualTime += int(elapsed.Minutes())
	}
	t.LastStartedAt = nil
}

// IsOverdue reports whether the task's due date has passed without the
// task being completed. Overdue is always computed at read time from
// the current clock; it is never stored.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != TaskStatusCompleted
}

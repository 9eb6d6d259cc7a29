package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
)

// DateBucket selects tasks by where their due date falls relative to a
// reference time. Buckets are aligned to UTC calendar boundaries.
type DateBucket string

const (
	// BucketToday matches tasks due within the current UTC day.
	BucketToday DateBucket = "today"
	// BucketWeek matches tasks due within the current UTC week (Monday start).
	BucketWeek DateBucket = "week"
	// BucketMonth matches tasks due within the current UTC calendar month.
	BucketMonth DateBucket = "month"
	// BucketOverdue matches uncompleted tasks whose due date has passed.
	BucketOverdue DateBucket = "overdue"
)

// IsValid reports whether b is a recognized bucket name.
func (b DateBucket) IsValid() bool {
	switch b {
	case BucketToday, BucketWeek, BucketMonth, BucketOverdue:
		return true
	}
	return false
}

// TaskFilter narrows List results. Zero values mean "no filter".
type TaskFilter struct {
	// Search matches title or description, case-insensitive substring.
	Search string
	// Status filters by task status.
	Status domain.TaskStatus
	// Priority filters by priority level.
	Priority domain.Priority
	// MarketplaceID filters by the owning marketplace.
	MarketplaceID string
	// AssigneeID filters by the assigned user when non-nil.
	AssigneeID *int64
	// DueBucket filters by due date relative to Now.
	DueBucket DateBucket
	// Now anchors the DueBucket computation. Required when DueBucket is set.
	Now time.Time
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns ErrDuplicate if a task with the same id already exists.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// CreateMultiple saves multiple tasks in one call. Run it inside a
	// transaction via WithTx when atomicity matters, e.g. when a routine
	// execution instantiates its whole template set.
	CreateMultiple(ctx context.Context, tasks []*domain.Task) error

	// GetByID retrieves a task by its id.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id string) (*domain.Task, error)

	// List retrieves tasks matching the filter, ordered by due date then
	// creation time.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// Update modifies an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task from the store by its id.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id string) error

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}

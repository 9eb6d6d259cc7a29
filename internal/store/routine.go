package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
)

// RoutineFilter narrows List results. Zero values mean "no filter".
type RoutineFilter struct {
	// Search matches name or description, case-insensitive substring.
	Search string
	// Status filters by routine status.
	Status domain.RoutineStatus
	// Frequency filters by execution frequency.
	Frequency domain.Frequency
	// MarketplaceID filters by the owning marketplace.
	MarketplaceID string
}

// RoutineStats holds the aggregate numbers behind the routine dashboard.
type RoutineStats struct {
	TotalRoutines   int
	ActiveRoutines  int
	TodayExecutions int
	// CompletedTasks and TotalTasks count routine-born tasks only.
	CompletedTasks int
	TotalTasks     int
}

// RoutineStore defines the interface for routine data persistence.
// Routines own their ordered RoutineTask templates; stores load and
// persist them together.
type RoutineStore interface {
	// Create saves a new routine and its templates to the store and
	// assigns the generated id back onto the routine.
	// Returns validation errors from the domain Routine if data is invalid.
	Create(ctx context.Context, routine *domain.Routine) error

	// GetByID retrieves a routine by its id, including its templates in
	// position order.
	// Returns ErrRoutineNotFound if the routine does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Routine, error)

	// List retrieves routines matching the filter, newest first, each
	// enriched with the owning marketplace's name and color.
	List(ctx context.Context, filter RoutineFilter) ([]*domain.Routine, error)

	// Update modifies an existing routine. When routine.Tasks is non-nil
	// the template set is replaced wholesale.
	// Returns ErrRoutineNotFound if the routine does not exist.
	Update(ctx context.Context, routine *domain.Routine) error

	// Delete removes a routine from the store by its id. Templates are
	// removed by cascade; tasks born from the routine are untouched.
	// Returns ErrRoutineNotFound if the routine does not exist.
	Delete(ctx context.Context, id int64) error

	// Stats computes the aggregate routine numbers. todayExecutions counts
	// routines whose next execution falls within the UTC day containing now.
	Stats(ctx context.Context, now time.Time) (*RoutineStats, error)

	// WithTx returns a new RoutineStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) RoutineStore
}

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/platform/logger"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

// ExecutionResult is what a routine execution produces: the routine with
// its schedule advanced, and the tasks materialized from its templates.
type ExecutionResult struct {
	Routine *domain.Routine `json:"routine"`
	Tasks   []*domain.Task  `json:"tasks"`
}

// RoutineStatsResult is the aggregate view behind the routine dashboard.
type RoutineStatsResult struct {
	TotalRoutines   int     `json:"totalRoutines"`
	ActiveRoutines  int     `json:"activeRoutines"`
	TodayExecutions int     `json:"todayExecutions"`
	CompletionRate  float64 `json:"completionRate"`
}

// RoutineService provides routine-related operations.
type RoutineService interface {
	// Create persists a new routine with its templates. The referenced
	// marketplace must exist.
	Create(ctx context.Context, routine *domain.Routine) error

	// Get retrieves a routine by id, templates included.
	Get(ctx context.Context, id int64) (*domain.Routine, error)

	// List retrieves routines matching the filter.
	List(ctx context.Context, filter store.RoutineFilter) ([]*domain.Routine, error)

	// Update persists changes to an existing routine. A non-nil template
	// list replaces the stored one.
	Update(ctx context.Context, routine *domain.Routine) error

	// Delete removes a routine and its templates. Tasks created from the
	// routine survive it.
	Delete(ctx context.Context, id int64) error

	// Execute materializes the routine's templates into tasks due 24 hours
	// from now and advances the schedule. The whole execution is atomic.
	Execute(ctx context.Context, id int64, now time.Time) (*ExecutionResult, error)

	// Stats computes the aggregate routine numbers at the given instant.
	Stats(ctx context.Context, now time.Time) (*RoutineStatsResult, error)
}

// txRunner executes fn within a database transaction.
type txRunner func(ctx context.Context, fn store.TxFn) error

// routineServiceImpl implements the RoutineService interface.
type routineServiceImpl struct {
	routineStore     store.RoutineStore
	taskStore        store.TaskStore
	marketplaceStore store.MarketplaceStore
	runTx            txRunner
	logger           *slog.Logger
}

// NewRoutineService creates a new RoutineService. The db handle is used to
// open transactions for create, update, and execute.
func NewRoutineService(
	db *sql.DB,
	routineStore store.RoutineStore,
	taskStore store.TaskStore,
	marketplaceStore store.MarketplaceStore,
	logger *slog.Logger,
) (RoutineService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if routineStore == nil {
		return nil, domain.NewValidationError("routineStore", "cannot be nil", domain.ErrValidation)
	}
	if taskStore == nil {
		return nil, domain.NewValidationError("taskStore", "cannot be nil", domain.ErrValidation)
	}
	if marketplaceStore == nil {
		return nil, domain.NewValidationError("marketplaceStore", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &routineServiceImpl{
		routineStore:     routineStore,
		taskStore:        taskStore,
		marketplaceStore: marketplaceStore,
		runTx: func(ctx context.Context, fn store.TxFn) error {
			return store.RunInTransaction(ctx, db, fn)
		},
		logger: logger.With(slog.String("component", "routine_service")),
	}, nil
}

// resolveMarketplace turns a missing marketplace into a validation error,
// so a bad reference reads as bad input rather than a missing routine.
func (s *routineServiceImpl) resolveMarketplace(ctx context.Context, id string) error {
	_, err := s.marketplaceStore.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return domain.NewValidationError("marketplace",
				fmt.Sprintf("marketplace %q does not exist", id), domain.ErrValidation)
		}
		return err
	}
	return nil
}

// Create implements RoutineService.Create.
func (s *routineServiceImpl) Create(ctx context.Context, routine *domain.Routine) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := routine.Validate(); err != nil {
		return err
	}
	if err := s.resolveMarketplace(ctx, routine.MarketplaceID); err != nil {
		return err
	}

	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.routineStore.WithTx(tx).Create(ctx, routine)
	})
	if err != nil {
		return err
	}

	log.Info("routine created",
		slog.Int64("routine_id", routine.ID),
		slog.String("frequency", string(routine.Frequency)),
		slog.Int("templates", len(routine.Tasks)))
	return nil
}

// Get implements RoutineService.Get.
func (s *routineServiceImpl) Get(ctx context.Context, id int64) (*domain.Routine, error) {
	return s.routineStore.GetByID(ctx, id)
}

// List implements RoutineService.List.
func (s *routineServiceImpl) List(
	ctx context.Context,
	filter store.RoutineFilter,
) ([]*domain.Routine, error) {
	return s.routineStore.List(ctx, filter)
}

// Update implements RoutineService.Update.
func (s *routineServiceImpl) Update(ctx context.Context, routine *domain.Routine) error {
	if err := routine.Validate(); err != nil {
		return err
	}
	if err := s.resolveMarketplace(ctx, routine.MarketplaceID); err != nil {
		return err
	}

	return s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.routineStore.WithTx(tx).Update(ctx, routine)
	})
}

// Delete implements RoutineService.Delete.
func (s *routineServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.routineStore.Delete(ctx, id)
}

// Execute implements RoutineService.Execute. Tasks inherit the routine's
// marketplace, category, and priority and take each template's title,
// description, and estimate; all of them come due 24 hours from now. The
// tasks and the schedule advance commit together or not at all.
func (s *routineServiceImpl) Execute(
	ctx context.Context,
	id int64,
	now time.Time,
) (*ExecutionResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	routine, err := s.routineStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	due := now.Add(24 * time.Hour)
	tasks := make([]*domain.Task, 0, len(routine.Tasks))
	for _, tmpl := range routine.Tasks {
		routineID := routine.ID
		dueDate := due
		tasks = append(tasks, &domain.Task{
			ID:            uuid.NewString(),
			Title:         tmpl.Title,
			Description:   tmpl.Description,
			MarketplaceID: routine.MarketplaceID,
			RoutineID:     &routineID,
			Category:      routine.Category,
			Priority:      routine.Priority,
			Status:        domain.TaskStatusTodo,
			DueDate:       &dueDate,
			EstimatedTime: tmpl.EstimatedTime,
			Links:         []string{},
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	routine.Advance(now)

	// Update replaces routine_tasks whenever Tasks is non-nil, and an
	// execution must not rewrite the templates it just read. Withhold
	// them for the schedule write and put them back on the result.
	templates := routine.Tasks
	routine.Tasks = nil

	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.taskStore.WithTx(tx).CreateMultiple(ctx, tasks); err != nil {
			return NewServiceError("routine", "execute", "failed to materialize tasks", err)
		}
		if err := s.routineStore.WithTx(tx).Update(ctx, routine); err != nil {
			return NewServiceError("routine", "execute", "failed to advance schedule", err)
		}
		return nil
	})
	routine.Tasks = templates
	if err != nil {
		return nil, err
	}

	log.Info("routine executed",
		slog.Int64("routine_id", routine.ID),
		slog.Int("tasks_created", len(tasks)))

	return &ExecutionResult{Routine: routine, Tasks: tasks}, nil
}

// Stats implements RoutineService.Stats.
func (s *routineServiceImpl) Stats(ctx context.Context, now time.Time) (*RoutineStatsResult, error) {
	stats, err := s.routineStore.Stats(ctx, now)
	if err != nil {
		return nil, err
	}

	return &RoutineStatsResult{
		TotalRoutines:   stats.TotalRoutines,
		ActiveRoutines:  stats.ActiveRoutines,
		TodayExecutions: stats.TodayExecutions,
		CompletionRate:  percentage(stats.CompletedTasks, stats.TotalTasks),
	}, nil
}

// percentage computes part/total as a percent rounded to one decimal,
// returning 0 for an empty total.
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

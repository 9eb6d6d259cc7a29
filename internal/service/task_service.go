package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/platform/logger"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

// TaskService provides task-related operations, including the
// todo / in-progress / completed state machine.
type TaskService interface {
	// Create persists a new task. The referenced marketplace, and the
	// assignee when set, must exist.
	Create(ctx context.Context, task *domain.Task) error

	// Get retrieves a task by id.
	Get(ctx context.Context, id string) (*domain.Task, error)

	// List retrieves tasks matching the filter.
	List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error)

	// Update persists changes to an existing task.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task.
	Delete(ctx context.Context, id string) error

	// Start moves a todo task into in-progress at the given instant.
	Start(ctx context.Context, id string, now time.Time) (*domain.Task, error)

	// Complete marks the task completed, banking elapsed time when it was
	// in progress. Completing a completed task changes nothing.
	Complete(ctx context.Context, id string, now time.Time) (*domain.Task, error)

	// Pause returns an in-progress task to todo, banking elapsed time.
	// Pausing a task in any other state is a no-op.
	Pause(ctx context.Context, id string, now time.Time) (*domain.Task, error)
}

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	taskStore        store.TaskStore
	marketplaceStore store.MarketplaceStore
	userStore        store.UserStore
	logger           *slog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	taskStore store.TaskStore,
	marketplaceStore store.MarketplaceStore,
	userStore store.UserStore,
	logger *slog.Logger,
) (TaskService, error) {
	if taskStore == nil {
		return nil, domain.NewValidationError("taskStore", "cannot be nil", domain.ErrValidation)
	}
	if marketplaceStore == nil {
		return nil, domain.NewValidationError("marketplaceStore", "cannot be nil", domain.ErrValidation)
	}
	if userStore == nil {
		return nil, domain.NewValidationError("userStore", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		taskStore:        taskStore,
		marketplaceStore: marketplaceStore,
		userStore:        userStore,
		logger:           logger.With(slog.String("component", "task_service")),
	}, nil
}

// checkReferences validates the marketplace and optional assignee exist,
// reporting missing ones as validation errors.
func (s *taskServiceImpl) checkReferences(ctx context.Context, task *domain.Task) error {
	if _, err := s.marketplaceStore.GetByID(ctx, task.MarketplaceID); err != nil {
		if store.IsNotFoundError(err) {
			return domain.NewValidationError("marketplace",
				fmt.Sprintf("marketplace %q does not exist", task.MarketplaceID), domain.ErrValidation)
		}
		return err
	}
	if task.AssigneeID != nil {
		if _, err := s.userStore.GetByID(ctx, *task.AssigneeID); err != nil {
			if store.IsNotFoundError(err) {
				return domain.NewValidationError("assigneeId",
					fmt.Sprintf("user %d does not exist", *task.AssigneeID), domain.ErrValidation)
			}
			return err
		}
	}
	return nil
}

// Create implements TaskService.Create.
func (s *taskServiceImpl) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}
	if err := s.checkReferences(ctx, task); err != nil {
		return err
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		return err
	}

	log.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("marketplace_id", task.MarketplaceID))
	return nil
}

// Get implements TaskService.Get.
func (s *taskServiceImpl) Get(ctx context.Context, id string) (*domain.Task, error) {
	return s.taskStore.GetByID(ctx, id)
}

// List implements TaskService.List.
func (s *taskServiceImpl) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	return s.taskStore.List(ctx, filter)
}

// Update implements TaskService.Update.
func (s *taskServiceImpl) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if err := s.checkReferences(ctx, task); err != nil {
		return err
	}
	return s.taskStore.Update(ctx, task)
}

// Delete implements TaskService.Delete.
func (s *taskServiceImpl) Delete(ctx context.Context, id string) error {
	return s.taskStore.Delete(ctx, id)
}

// transition loads the task, applies fn, and persists the result.
func (s *taskServiceImpl) transition(
	ctx context.Context,
	id string,
	fn func(*domain.Task) error,
) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(task); err != nil {
		return nil, err
	}
	if err := s.taskStore.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Start implements TaskService.Start.
func (s *taskServiceImpl) Start(ctx context.Context, id string, now time.Time) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.transition(ctx, id, func(t *domain.Task) error {
		return t.Start(now)
	})
	if err != nil {
		return nil, err
	}

	log.Info("task started", slog.String("task_id", id))
	return task, nil
}

// Complete implements TaskService.Complete.
func (s *taskServiceImpl) Complete(ctx context.Context, id string, now time.Time) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.transition(ctx, id, func(t *domain.Task) error {
		t.Complete(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("task completed",
		slog.String("task_id", id),
		slog.Int("actual_time", task.ActualTime))
	return task, nil
}

// Pause implements TaskService.Pause.
func (s *taskServiceImpl) Pause(ctx context.Context, id string, now time.Time) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.transition(ctx, id, func(t *domain.Task) error {
		t.Pause(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug("task paused", slog.String("task_id", id))
	return task, nil
}

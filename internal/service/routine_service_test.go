package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

func newRoutineServiceForTest(
	routines *fakeRoutineStore,
	tasks *fakeTaskStore,
	marketplaces *fakeMarketplaceStore,
) *routineServiceImpl {
	return &routineServiceImpl{
		routineStore:     routines,
		taskStore:        tasks,
		marketplaceStore: marketplaces,
		runTx:            passthroughTx,
		logger:           slog.Default(),
	}
}

func seedMarketplace(t *testing.T, marketplaces *fakeMarketplaceStore, id string) {
	t.Helper()
	m, err := domain.NewMarketplace(id, "Amazon DE", "amazon")
	require.NoError(t, err)
	require.NoError(t, marketplaces.Create(context.Background(), m))
}

func TestRoutineServiceCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("persists routine with templates", func(t *testing.T) {
		routines := newFakeRoutineStore()
		marketplaces := newFakeMarketplaceStore()
		seedMarketplace(t, marketplaces, "amazon-de")
		svc := newRoutineServiceForTest(routines, newFakeTaskStore(), marketplaces)

		routine, err := domain.NewRoutine("Weekly inventory check", "amazon-de", domain.FrequencyWeekly)
		require.NoError(t, err)
		routine.Tasks = []*domain.RoutineTask{
			{Title: "Check stock levels", Position: 0},
			{Title: "Reorder low items", Position: 1},
		}

		require.NoError(t, svc.Create(ctx, routine))
		assert.NotZero(t, routine.ID)
		assert.Equal(t, routine.ID, routine.Tasks[0].RoutineID)
	})

	t.Run("unknown marketplace is a validation error", func(t *testing.T) {
		svc := newRoutineServiceForTest(newFakeRoutineStore(), newFakeTaskStore(), newFakeMarketplaceStore())

		routine, err := domain.NewRoutine("Orphan routine", "nowhere", domain.FrequencyDaily)
		require.NoError(t, err)

		err = svc.Create(ctx, routine)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestRoutineServiceExecute(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	setup := func(t *testing.T) (*routineServiceImpl, *fakeRoutineStore, *fakeTaskStore, *domain.Routine) {
		routines := newFakeRoutineStore()
		tasks := newFakeTaskStore()
		marketplaces := newFakeMarketplaceStore()
		seedMarketplace(t, marketplaces, "amazon-de")
		svc := newRoutineServiceForTest(routines, tasks, marketplaces)

		routine, err := domain.NewRoutine("Morning checks", "amazon-de", domain.FrequencyDaily)
		require.NoError(t, err)
		routine.Category = "operations"
		routine.Priority = domain.PriorityHigh
		routine.Tasks = []*domain.RoutineTask{
			{Title: "Review overnight orders", Position: 0, EstimatedTime: 15},
			{Title: "Answer customer messages", Position: 1, EstimatedTime: 30},
		}
		require.NoError(t, routines.Create(ctx, routine))
		return svc, routines, tasks, routine
	}

	t.Run("materializes templates into tasks", func(t *testing.T) {
		svc, _, tasks, routine := setup(t)

		result, err := svc.Execute(ctx, routine.ID, now)
		require.NoError(t, err)
		require.Len(t, result.Tasks, 2)
		assert.Len(t, tasks.items, 2)

		first := result.Tasks[0]
		assert.Equal(t, "Review overnight orders", first.Title)
		assert.Equal(t, "amazon-de", first.MarketplaceID)
		assert.Equal(t, "operations", first.Category)
		assert.Equal(t, domain.PriorityHigh, first.Priority)
		assert.Equal(t, domain.TaskStatusTodo, first.Status)
		assert.Equal(t, 15, first.EstimatedTime)
		require.NotNil(t, first.RoutineID)
		assert.Equal(t, routine.ID, *first.RoutineID)
		require.NotNil(t, first.DueDate)
		assert.Equal(t, now.Add(24*time.Hour), *first.DueDate)
	})

	t.Run("advances the schedule", func(t *testing.T) {
		svc, _, _, routine := setup(t)

		result, err := svc.Execute(ctx, routine.ID, now)
		require.NoError(t, err)

		require.NotNil(t, result.Routine.LastExecution)
		assert.Equal(t, now, *result.Routine.LastExecution)
		require.NotNil(t, result.Routine.NextExecution)
		assert.Equal(t, now.Add(24*time.Hour), *result.Routine.NextExecution)
	})

	t.Run("leaves templates untouched", func(t *testing.T) {
		svc, routines, _, routine := setup(t)
		routine.Tasks[0].ID = 41
		routine.Tasks[1].ID = 42

		result, err := svc.Execute(ctx, routine.ID, now)
		require.NoError(t, err)

		// The schedule write must not carry templates, or the store
		// would delete and reinsert every row under fresh ids.
		assert.Nil(t, routines.lastUpdateTasks)
		require.Len(t, result.Routine.Tasks, 2)
		assert.Equal(t, int64(41), result.Routine.Tasks[0].ID)
		assert.Equal(t, int64(42), result.Routine.Tasks[1].ID)
	})

	t.Run("task failure aborts the execution", func(t *testing.T) {
		svc, _, tasks, routine := setup(t)
		tasks.createErr = store.ErrTransactionFailed

		_, err := svc.Execute(ctx, routine.ID, now)
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrTransactionFailed)
	})

	t.Run("unknown routine", func(t *testing.T) {
		svc, _, _, _ := setup(t)

		_, err := svc.Execute(ctx, 9999, now)
		assert.ErrorIs(t, err, store.ErrRoutineNotFound)
	})
}

func TestRoutineServiceStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	t.Run("completion rate has one decimal", func(t *testing.T) {
		routines := newFakeRoutineStore()
		routines.stats = &store.RoutineStats{
			TotalRoutines:   5,
			ActiveRoutines:  3,
			TodayExecutions: 2,
			CompletedTasks:  1,
			TotalTasks:      3,
		}
		svc := newRoutineServiceForTest(routines, newFakeTaskStore(), newFakeMarketplaceStore())

		stats, err := svc.Stats(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 5, stats.TotalRoutines)
		assert.Equal(t, 3, stats.ActiveRoutines)
		assert.Equal(t, 2, stats.TodayExecutions)
		assert.InDelta(t, 33.3, stats.CompletionRate, 0.001)
	})

	t.Run("zero tasks means zero rate", func(t *testing.T) {
		svc := newRoutineServiceForTest(newFakeRoutineStore(), newFakeTaskStore(), newFakeMarketplaceStore())

		stats, err := svc.Stats(ctx, now)
		require.NoError(t, err)
		assert.Zero(t, stats.CompletionRate)
	})
}

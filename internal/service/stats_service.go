package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/platform/logger"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

// DailySummary totals one day's workload.
type DailySummary struct {
	Total         int     `json:"total"`
	Completed     int     `json:"completed"`
	Progress      float64 `json:"progress"`
	RemainingTime int     `json:"remainingTime"`
}

// DailyTasksResult partitions the tasks due today into dashboard buckets.
// A task lands in exactly one bucket: completed and in-progress win over
// overdue, overdue wins over pending.
type DailyTasksResult struct {
	Date       string         `json:"date"`
	Completed  []*domain.Task `json:"completed"`
	InProgress []*domain.Task `json:"inProgress"`
	Overdue    []*domain.Task `json:"overdue"`
	Pending    []*domain.Task `json:"pending"`
	Summary    DailySummary   `json:"summary"`
}

// TaskStatsResult is the aggregate view across all tasks.
type TaskStatsResult struct {
	Total          int     `json:"total"`
	Pending        int     `json:"pending"`
	Completed      int     `json:"completed"`
	Overdue        int     `json:"overdue"`
	Today          int     `json:"today"`
	CompletionRate float64 `json:"completionRate"`
}

// StatsService computes task statistics. Everything is recomputed from the
// store on each call; nothing is cached or stored.
type StatsService interface {
	// DailyTasks partitions the tasks due within the UTC day containing
	// now into completed / in-progress / overdue / pending buckets.
	DailyTasks(ctx context.Context, now time.Time) (*DailyTasksResult, error)

	// TaskStats aggregates counts and the completion rate over all tasks.
	TaskStats(ctx context.Context, now time.Time) (*TaskStatsResult, error)
}

// statsServiceImpl implements the StatsService interface.
type statsServiceImpl struct {
	taskStore store.TaskStore
	logger    *slog.Logger
}

// NewStatsService creates a new StatsService.
func NewStatsService(taskStore store.TaskStore, logger *slog.Logger) (StatsService, error) {
	if taskStore == nil {
		return nil, domain.NewValidationError("taskStore", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &statsServiceImpl{
		taskStore: taskStore,
		logger:    logger.With(slog.String("component", "stats_service")),
	}, nil
}

// DailyTasks implements StatsService.DailyTasks.
func (s *statsServiceImpl) DailyTasks(ctx context.Context, now time.Time) (*DailyTasksResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tasks, err := s.taskStore.List(ctx, store.TaskFilter{
		DueBucket: store.BucketToday,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}

	result := &DailyTasksResult{
		Date:       now.UTC().Format("2006-01-02"),
		Completed:  []*domain.Task{},
		InProgress: []*domain.Task{},
		Overdue:    []*domain.Task{},
		Pending:    []*domain.Task{},
	}

	remaining := 0
	for _, task := range tasks {
		switch {
		case task.Status == domain.TaskStatusCompleted:
			result.Completed = append(result.Completed, task)
		case task.Status == domain.TaskStatusInProgress:
			result.InProgress = append(result.InProgress, task)
			remaining += task.EstimatedTime
		case task.IsOverdue(now):
			result.Overdue = append(result.Overdue, task)
		default:
			result.Pending = append(result.Pending, task)
			remaining += task.EstimatedTime
		}
	}

	result.Summary = DailySummary{
		Total:         len(tasks),
		Completed:     len(result.Completed),
		Progress:      percentage(len(result.Completed), len(tasks)),
		RemainingTime: remaining,
	}

	log.Debug("computed daily tasks",
		slog.String("date", result.Date),
		slog.Int("total", result.Summary.Total))
	return result, nil
}

// TaskStats implements StatsService.TaskStats.
func (s *statsServiceImpl) TaskStats(ctx context.Context, now time.Time) (*TaskStatsResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tasks, err := s.taskStore.List(ctx, store.TaskFilter{})
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	stats := &TaskStatsResult{Total: len(tasks)}
	for _, task := range tasks {
		switch task.Status {
		case domain.TaskStatusCompleted:
			stats.Completed++
		default:
			stats.Pending++
		}
		if task.IsOverdue(now) {
			stats.Overdue++
		}
		if task.DueDate != nil && !task.DueDate.Before(dayStart) && task.DueDate.Before(dayEnd) {
			stats.Today++
		}
	}
	stats.CompletionRate = percentage(stats.Completed, stats.Total)

	log.Debug("computed task stats", slog.Int("total", stats.Total))
	return stats, nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/platform/logger"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction
// managed by the caller. If logger is nil, the default logger is used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore.
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx returns a TaskStore bound to the given transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

const taskColumns = `id, title, description, marketplace_id, routine_id, category,
	priority, status, assignee_id, due_date, estimated_time, actual_time, links,
	notes, started_at, completed_at, last_started_at, created_at, updated_at`

// scanTask reads one tasks row. scanner is either *sql.Row or *sql.Rows.
func scanTask(scanner interface{ Scan(...any) error }) (*domain.Task, error) {
	var t domain.Task
	var links []byte

	err := scanner.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.MarketplaceID,
		&t.RoutineID,
		&t.Category,
		&t.Priority,
		&t.Status,
		&t.AssigneeID,
		&t.DueDate,
		&t.EstimatedTime,
		&t.ActualTime,
		&links,
		&t.Notes,
		&t.StartedAt,
		&t.CompletedAt,
		&t.LastStartedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(links, &t.Links); err != nil {
		return nil, fmt.Errorf("failed to unmarshal links: %w", err)
	}
	if t.Links == nil {
		t.Links = []string{}
	}

	return &t, nil
}

// taskInsertArgs builds the VALUES arguments for one task.
func taskInsertArgs(t *domain.Task) ([]any, error) {
	links, err := json.Marshal(t.Links)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal links: %w", err)
	}
	return []any{
		t.ID,
		t.Title,
		t.Description,
		t.MarketplaceID,
		t.RoutineID,
		t.Category,
		t.Priority,
		t.Status,
		t.AssigneeID,
		t.DueDate,
		t.EstimatedTime,
		t.ActualTime,
		links,
		t.Notes,
		t.StartedAt,
		t.CompletedAt,
		t.LastStartedAt,
		t.CreatedAt,
		t.UpdatedAt,
	}, nil
}

const taskInsertQuery = `
	INSERT INTO tasks (` + taskColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
`

// Create implements store.TaskStore.Create.
// Returns store.ErrDuplicate if the id is already taken and
// store.ErrInvalidEntity when the marketplace or assignee does not exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID))
		return err
	}

	args, err := taskInsertArgs(task)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, taskInsertQuery, args...); err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate task id", slog.String("task_id", task.ID))
			return fmt.Errorf("%w: task id %s", store.ErrDuplicate, task.ID)
		}
		if IsForeignKeyViolation(err) {
			log.Warn("task references missing entity",
				slog.String("task_id", task.ID),
				slog.String("constraint", ConstraintName(err)))
			return fmt.Errorf("%w: referenced entity not found (%s)",
				store.ErrInvalidEntity, ConstraintName(err))
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID))
		return MapError(err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("marketplace_id", task.MarketplaceID))
	return nil
}

// CreateMultiple implements store.TaskStore.CreateMultiple. Run it inside
// a transaction via WithTx when the batch must be all-or-nothing.
func (s *PostgresTaskStore) CreateMultiple(ctx context.Context, tasks []*domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, task := range tasks {
		if err := s.Create(ctx, task); err != nil {
			return err
		}
	}

	log.Debug("created task batch", slog.Int("count", len(tasks)))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return nil, MapError(err)
	}

	return task, nil
}

// bucketRange returns the UTC [start, end) window for calendar buckets.
// The overdue bucket has no window and is handled separately.
func bucketRange(bucket store.DateBucket, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch bucket {
	case store.BucketToday:
		return dayStart, dayStart.Add(24 * time.Hour)
	case store.BucketWeek:
		// ISO week: Monday is day 0.
		offset := (int(dayStart.Weekday()) + 6) % 7
		weekStart := dayStart.AddDate(0, 0, -offset)
		return weekStart, weekStart.AddDate(0, 0, 7)
	case store.BucketMonth:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return monthStart, monthStart.AddDate(0, 1, 0)
	}
	return time.Time{}, time.Time{}
}

// List implements store.TaskStore.List.
// Returns an empty slice when nothing matches.
func (s *PostgresTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []any

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	if filter.MarketplaceID != "" {
		args = append(args, filter.MarketplaceID)
		query += fmt.Sprintf(" AND marketplace_id = $%d", len(args))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		query += fmt.Sprintf(" AND assignee_id = $%d", len(args))
	}

	switch filter.DueBucket {
	case "":
		// no due-date constraint
	case store.BucketOverdue:
		args = append(args, filter.Now.UTC())
		query += fmt.Sprintf(" AND due_date < $%d AND status <> 'completed'", len(args))
	default:
		start, end := bucketRange(filter.DueBucket, filter.Now)
		if start.IsZero() {
			return nil, fmt.Errorf("%w: unknown date bucket %q", store.ErrInvalidEntity, filter.DueBucket)
		}
		args = append(args, start)
		query += fmt.Sprintf(" AND due_date >= $%d", len(args))
		args = append(args, end)
		query += fmt.Sprintf(" AND due_date < $%d", len(args))
	}

	query += " ORDER BY due_date NULLS LAST, created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}

	log.Debug("listed tasks", slog.Int("count", len(tasks)))
	return tasks, nil
}

// Update implements store.TaskStore.Update.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID))
		return err
	}

	links, err := json.Marshal(task.Links)
	if err != nil {
		return fmt.Errorf("failed to marshal links: %w", err)
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, marketplace_id = $3, routine_id = $4,
			category = $5, priority = $6, status = $7, assignee_id = $8,
			due_date = $9, estimated_time = $10, actual_time = $11, links = $12,
			notes = $13, started_at = $14, completed_at = $15,
			last_started_at = $16, updated_at = $17
		WHERE id = $18
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		task.Title,
		task.Description,
		task.MarketplaceID,
		task.RoutineID,
		task.Category,
		task.Priority,
		task.Status,
		task.AssigneeID,
		task.DueDate,
		task.EstimatedTime,
		task.ActualTime,
		links,
		task.Notes,
		task.StartedAt,
		task.CompletedAt,
		task.LastStartedAt,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: referenced entity not found (%s)",
				store.ErrInvalidEntity, ConstraintName(err))
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		log.Debug("task not found for update", slog.String("task_id", task.ID))
		return store.ErrTaskNotFound
	}

	log.Info("task updated", slog.String("task_id", task.ID))
	return nil
}

// Delete implements store.TaskStore.Delete.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Delete(ctx context.Context, id string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		log.Debug("task not found for delete", slog.String("task_id", id))
		return store.ErrTaskNotFound
	}

	log.Info("task deleted", slog.String("task_id", id))
	return nil
}

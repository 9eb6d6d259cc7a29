package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/platform/logger"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

// PostgresRoutineStore implements the store.RoutineStore interface
// using a PostgreSQL database as the storage backend.
type PostgresRoutineStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRoutineStore creates a new PostgreSQL implementation of the
// RoutineStore interface. It accepts a database connection or transaction
// managed by the caller. If logger is nil, the default logger is used.
func NewPostgresRoutineStore(db store.DBTX, logger *slog.Logger) *PostgresRoutineStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRoutineStore{
		db:     db,
		logger: logger.With(slog.String("component", "routine_store")),
	}
}

// Ensure PostgresRoutineStore implements store.RoutineStore.
var _ store.RoutineStore = (*PostgresRoutineStore)(nil)

// WithTx returns a RoutineStore bound to the given transaction.
func (s *PostgresRoutineStore) WithTx(tx *sql.Tx) store.RoutineStore {
	return &PostgresRoutineStore{
		db:     tx,
		logger: s.logger,
	}
}

// nullableJSON turns an empty RawMessage into a NULL parameter so jsonb
// columns don't end up holding the empty string.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

// Create implements store.RoutineStore.Create. It inserts the routine and
// its templates; run it inside a transaction via WithTx so a template
// failure rolls the routine back too.
func (s *PostgresRoutineStore) Create(ctx context.Context, routine *domain.Routine) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := routine.Validate(); err != nil {
		log.Warn("routine validation failed during create",
			slog.String("error", err.Error()),
			slog.String("name", routine.Name))
		return err
	}

	query := `
		INSERT INTO routines (name, description, category, priority, marketplace_id,
			frequency, periodicity_config, estimated_time, responsible, status,
			notifications_enabled, last_execution, next_execution, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		routine.Name,
		routine.Description,
		routine.Category,
		routine.Priority,
		routine.MarketplaceID,
		routine.Frequency,
		nullableJSON(routine.PeriodicityConfig),
		routine.EstimatedTime,
		routine.Responsible,
		routine.Status,
		routine.NotificationsEnabled,
		routine.LastExecution,
		routine.NextExecution,
		routine.CreatedAt,
		routine.UpdatedAt,
	).Scan(&routine.ID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("unknown marketplace for routine",
				slog.String("marketplace_id", routine.MarketplaceID))
			return fmt.Errorf("%w: marketplace with id %s not found",
				store.ErrInvalidEntity, routine.MarketplaceID)
		}
		log.Error("failed to create routine",
			slog.String("error", err.Error()),
			slog.String("name", routine.Name))
		return MapError(err)
	}

	if err := s.insertTemplates(ctx, routine.ID, routine.Tasks); err != nil {
		log.Error("failed to insert routine templates",
			slog.String("error", err.Error()),
			slog.Int64("routine_id", routine.ID))
		return err
	}

	log.Info("routine created",
		slog.Int64("routine_id", routine.ID),
		slog.String("name", routine.Name),
		slog.Int("templates", len(routine.Tasks)))
	return nil
}

// insertTemplates writes the template rows for a routine and assigns the
// generated ids back.
func (s *PostgresRoutineStore) insertTemplates(
	ctx context.Context,
	routineID int64,
	templates []*domain.RoutineTask,
) error {
	query := `
		INSERT INTO routine_tasks (routine_id, title, description, position,
			estimated_time, required, task_type, configuration)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	for _, tmpl := range templates {
		if err := tmpl.Validate(); err != nil {
			return err
		}
		tmpl.RoutineID = routineID
		err := s.db.QueryRowContext(
			ctx,
			query,
			routineID,
			tmpl.Title,
			tmpl.Description,
			tmpl.Position,
			tmpl.EstimatedTime,
			tmpl.Required,
			tmpl.TaskType,
			nullableJSON(tmpl.Configuration),
		).Scan(&tmpl.ID)
		if err != nil {
			if IsUniqueViolation(err) {
				return fmt.Errorf("%w: duplicate template position %d",
					store.ErrInvalidEntity, tmpl.Position)
			}
			return MapError(err)
		}
	}
	return nil
}

// loadTemplates fetches the ordered template list for a routine.
func (s *PostgresRoutineStore) loadTemplates(ctx context.Context, routineID int64) ([]*domain.RoutineTask, error) {
	query := `
		SELECT id, routine_id, title, description, position, estimated_time,
			required, task_type, configuration
		FROM routine_tasks
		WHERE routine_id = $1
		ORDER BY position
	`
	rows, err := s.db.QueryContext(ctx, query, routineID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	templates := []*domain.RoutineTask{}
	for rows.Next() {
		var tmpl domain.RoutineTask
		var configuration []byte
		err := rows.Scan(
			&tmpl.ID,
			&tmpl.RoutineID,
			&tmpl.Title,
			&tmpl.Description,
			&tmpl.Position,
			&tmpl.EstimatedTime,
			&tmpl.Required,
			&tmpl.TaskType,
			&configuration,
		)
		if err != nil {
			return nil, err
		}
		tmpl.Configuration = configuration
		templates = append(templates, &tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return templates, nil
}

const routineColumns = `r.id, r.name, r.description, r.category, r.priority,
	r.marketplace_id, r.frequency, r.periodicity_config, r.estimated_time,
	r.responsible, r.status, r.notifications_enabled, r.last_execution,
	r.next_execution, r.created_at, r.updated_at, m.name, m.color`

// scanRoutine reads one joined routines/marketplaces row.
func scanRoutine(scanner interface{ Scan(...any) error }) (*domain.Routine, error) {
	var r domain.Routine
	var periodicityConfig []byte

	err := scanner.Scan(
		&r.ID,
		&r.Name,
		&r.Description,
		&r.Category,
		&r.Priority,
		&r.MarketplaceID,
		&r.Frequency,
		&periodicityConfig,
		&r.EstimatedTime,
		&r.Responsible,
		&r.Status,
		&r.NotificationsEnabled,
		&r.LastExecution,
		&r.NextExecution,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.MarketplaceName,
		&r.MarketplaceColor,
	)
	if err != nil {
		return nil, err
	}

	r.PeriodicityConfig = periodicityConfig
	return &r, nil
}

// GetByID implements store.RoutineStore.GetByID. The result includes the
// template list in position order.
// Returns store.ErrRoutineNotFound if the routine does not exist.
func (s *PostgresRoutineStore) GetByID(ctx context.Context, id int64) (*domain.Routine, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + routineColumns + `
		FROM routines r
		JOIN marketplaces m ON m.id = r.marketplace_id
		WHERE r.id = $1
	`
	routine, err := scanRoutine(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("routine not found", slog.Int64("routine_id", id))
			return nil, store.ErrRoutineNotFound
		}
		log.Error("failed to get routine",
			slog.String("error", err.Error()),
			slog.Int64("routine_id", id))
		return nil, MapError(err)
	}

	routine.Tasks, err = s.loadTemplates(ctx, id)
	if err != nil {
		log.Error("failed to load routine templates",
			slog.String("error", err.Error()),
			slog.Int64("routine_id", id))
		return nil, err
	}

	return routine, nil
}

// List implements store.RoutineStore.List. Results carry marketplace name
// and color but not templates; newest routines come first.
func (s *PostgresRoutineStore) List(
	ctx context.Context,
	filter store.RoutineFilter,
) ([]*domain.Routine, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + routineColumns + `
		FROM routines r
		JOIN marketplaces m ON m.id = r.marketplace_id
		WHERE 1=1
	`
	var args []any

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (r.name ILIKE $%d OR r.description ILIKE $%d)", len(args), len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND r.status = $%d", len(args))
	}
	if filter.Frequency != "" {
		args = append(args, filter.Frequency)
		query += fmt.Sprintf(" AND r.frequency = $%d", len(args))
	}
	if filter.MarketplaceID != "" {
		args = append(args, filter.MarketplaceID)
		query += fmt.Sprintf(" AND r.marketplace_id = $%d", len(args))
	}
	query += " ORDER BY r.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list routines", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var routines []*domain.Routine
	for rows.Next() {
		routine, err := scanRoutine(rows)
		if err != nil {
			log.Error("failed to scan routine row", slog.String("error", err.Error()))
			return nil, err
		}
		routines = append(routines, routine)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if routines == nil {
		routines = []*domain.Routine{}
	}

	log.Debug("listed routines", slog.Int("count", len(routines)))
	return routines, nil
}

// Update implements store.RoutineStore.Update. When routine.Tasks is
// non-nil the template set is replaced wholesale; run such updates inside
// a transaction via WithTx.
// Returns store.ErrRoutineNotFound if the routine does not exist.
func (s *PostgresRoutineStore) Update(ctx context.Context, routine *domain.Routine) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := routine.Validate(); err != nil {
		log.Warn("routine validation failed during update",
			slog.String("error", err.Error()),
			slog.Int64("routine_id", routine.ID))
		return err
	}

	query := `
		UPDATE routines
		SET name = $1, description = $2, category = $3, priority = $4,
			marketplace_id = $5, frequency = $6, periodicity_config = $7,
			estimated_time = $8, responsible = $9, status = $10,
			notifications_enabled = $11, last_execution = $12,
			next_execution = $13, updated_at = $14
		WHERE id = $15
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		routine.Name,
		routine.Description,
		routine.Category,
		routine.Priority,
		routine.MarketplaceID,
		routine.Frequency,
		nullableJSON(routine.PeriodicityConfig),
		routine.EstimatedTime,
		routine.Responsible,
		routine.Status,
		routine.NotificationsEnabled,
		routine.LastExecution,
		routine.NextExecution,
		routine.UpdatedAt,
		routine.ID,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: marketplace with id %s not found",
				store.ErrInvalidEntity, routine.MarketplaceID)
		}
		log.Error("failed to update routine",
			slog.String("error", err.Error()),
			slog.Int64("routine_id", routine.ID))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "routine"); err != nil {
		log.Debug("routine not found for update", slog.Int64("routine_id", routine.ID))
		return store.ErrRoutineNotFound
	}

	if routine.Tasks != nil {
		_, err := s.db.ExecContext(ctx, `DELETE FROM routine_tasks WHERE routine_id = $1`, routine.ID)
		if err != nil {
			log.Error("failed to clear routine templates",
				slog.String("error", err.Error()),
				slog.Int64("routine_id", routine.ID))
			return MapError(err)
		}
		if err := s.insertTemplates(ctx, routine.ID, routine.Tasks); err != nil {
			log.Error("failed to replace routine templates",
				slog.String("error", err.Error()),
				slog.Int64("routine_id", routine.ID))
			return err
		}
	}

	log.Info("routine updated", slog.Int64("routine_id", routine.ID))
	return nil
}

// Delete implements store.RoutineStore.Delete. Templates go with the
// routine via ON DELETE CASCADE; tasks born from the routine are kept.
// Returns store.ErrRoutineNotFound if the routine does not exist.
func (s *PostgresRoutineStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM routines WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete routine",
			slog.String("error", err.Error()),
			slog.Int64("routine_id", id))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "routine"); err != nil {
		log.Debug("routine not found for delete", slog.Int64("routine_id", id))
		return store.ErrRoutineNotFound
	}

	log.Info("routine deleted", slog.Int64("routine_id", id))
	return nil
}

// Stats implements store.RoutineStore.Stats in a single round trip.
func (s *PostgresRoutineStore) Stats(ctx context.Context, now time.Time) (*store.RoutineStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	query := `
		SELECT
			(SELECT COUNT(*) FROM routines),
			(SELECT COUNT(*) FROM routines WHERE status = 'active'),
			(SELECT COUNT(*) FROM routines
				WHERE next_execution >= $1 AND next_execution < $2),
			(SELECT COUNT(*) FROM tasks
				WHERE routine_id IS NOT NULL AND status = 'completed'),
			(SELECT COUNT(*) FROM tasks WHERE routine_id IS NOT NULL)
	`

	var stats store.RoutineStats
	err := s.db.QueryRowContext(ctx, query, dayStart, dayEnd).Scan(
		&stats.TotalRoutines,
		&stats.ActiveRoutines,
		&stats.TodayExecutions,
		&stats.CompletedTasks,
		&stats.TotalTasks,
	)
	if err != nil {
		log.Error("failed to compute routine stats", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return &stats, nil
}

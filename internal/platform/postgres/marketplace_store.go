package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/platform/logger"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

// PostgresMarketplaceStore implements the store.MarketplaceStore interface
// using a PostgreSQL database as the storage backend.
type PostgresMarketplaceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresMarketplaceStore creates a new PostgreSQL implementation of the
// MarketplaceStore interface. It accepts a database connection or transaction
// managed by the caller. If logger is nil, the default logger is used.
func NewPostgresMarketplaceStore(db store.DBTX, logger *slog.Logger) *PostgresMarketplaceStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresMarketplaceStore{
		db:     db,
		logger: logger.With(slog.String("component", "marketplace_store")),
	}
}

// Ensure PostgresMarketplaceStore implements store.MarketplaceStore.
var _ store.MarketplaceStore = (*PostgresMarketplaceStore)(nil)

// WithTx returns a MarketplaceStore bound to the given transaction.
func (s *PostgresMarketplaceStore) WithTx(tx *sql.Tx) store.MarketplaceStore {
	return &PostgresMarketplaceStore{
		db:     tx,
		logger: s.logger,
	}
}

const marketplaceColumns = `id, name, description, color, logo_url, marketplace_type,
	priority, tags, responsible, active, favorite, urls, schedule, timezone,
	custom_fields, created_at, updated_at`

// marketplaceJSON marshals the jsonb columns of a marketplace.
func marketplaceJSON(m *domain.Marketplace) (tags, urls, schedule, customFields []byte, err error) {
	if tags, err = json.Marshal(m.Tags); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	if urls, err = json.Marshal(m.URLs); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal urls: %w", err)
	}
	if schedule, err = json.Marshal(m.Schedule); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal schedule: %w", err)
	}
	if customFields, err = json.Marshal(m.CustomFields); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal custom fields: %w", err)
	}
	return tags, urls, schedule, customFields, nil
}

// scanMarketplace reads one marketplaces row. scanner is either *sql.Row or
// *sql.Rows.
func scanMarketplace(scanner interface{ Scan(...any) error }) (*domain.Marketplace, error) {
	var m domain.Marketplace
	var tags, urls, schedule, customFields []byte

	err := scanner.Scan(
		&m.ID,
		&m.Name,
		&m.Description,
		&m.Color,
		&m.LogoURL,
		&m.Type,
		&m.Priority,
		&tags,
		&m.Responsible,
		&m.Active,
		&m.Favorite,
		&urls,
		&schedule,
		&m.Timezone,
		&customFields,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(tags, &m.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if err := json.Unmarshal(urls, &m.URLs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal urls: %w", err)
	}
	if err := json.Unmarshal(schedule, &m.Schedule); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schedule: %w", err)
	}
	if err := json.Unmarshal(customFields, &m.CustomFields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal custom fields: %w", err)
	}

	if m.Tags == nil {
		m.Tags = []string{}
	}
	if m.CustomFields == nil {
		m.CustomFields = []domain.CustomField{}
	}

	return &m, nil
}

// Create implements store.MarketplaceStore.Create.
// Returns store.ErrDuplicate if the id is already taken.
func (s *PostgresMarketplaceStore) Create(ctx context.Context, m *domain.Marketplace) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := m.Validate(); err != nil {
		log.Warn("marketplace validation failed during create",
			slog.String("error", err.Error()),
			slog.String("marketplace_id", m.ID))
		return err
	}

	tags, urls, schedule, customFields, err := marketplaceJSON(m)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO marketplaces (` + marketplaceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		m.ID,
		m.Name,
		m.Description,
		m.Color,
		m.LogoURL,
		m.Type,
		m.Priority,
		tags,
		m.Responsible,
		m.Active,
		m.Favorite,
		urls,
		schedule,
		m.Timezone,
		customFields,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate marketplace id",
				slog.String("marketplace_id", m.ID))
			return fmt.Errorf("%w: marketplace id %s", store.ErrDuplicate, m.ID)
		}
		log.Error("failed to create marketplace",
			slog.String("error", err.Error()),
			slog.String("marketplace_id", m.ID))
		return MapError(err)
	}

	log.Info("marketplace created",
		slog.String("marketplace_id", m.ID),
		slog.String("name", m.Name))
	return nil
}

// GetByID implements store.MarketplaceStore.GetByID.
// Returns store.ErrMarketplaceNotFound if the marketplace does not exist.
func (s *PostgresMarketplaceStore) GetByID(ctx context.Context, id string) (*domain.Marketplace, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + marketplaceColumns + ` FROM marketplaces WHERE id = $1`

	m, err := scanMarketplace(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("marketplace not found", slog.String("marketplace_id", id))
			return nil, store.ErrMarketplaceNotFound
		}
		log.Error("failed to get marketplace",
			slog.String("error", err.Error()),
			slog.String("marketplace_id", id))
		return nil, MapError(err)
	}

	return m, nil
}

// List implements store.MarketplaceStore.List.
// Returns an empty slice when nothing matches.
func (s *PostgresMarketplaceStore) List(
	ctx context.Context,
	filter store.MarketplaceFilter,
) ([]*domain.Marketplace, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + marketplaceColumns + ` FROM marketplaces WHERE 1=1`
	var args []any

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND marketplace_type = $%d", len(args))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		query += fmt.Sprintf(" AND active = $%d", len(args))
	}
	if filter.FavoritesOnly {
		query += " AND favorite = TRUE"
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list marketplaces", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var marketplaces []*domain.Marketplace
	for rows.Next() {
		m, err := scanMarketplace(rows)
		if err != nil {
			log.Error("failed to scan marketplace row", slog.String("error", err.Error()))
			return nil, err
		}
		marketplaces = append(marketplaces, m)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if marketplaces == nil {
		marketplaces = []*domain.Marketplace{}
	}

	log.Debug("listed marketplaces", slog.Int("count", len(marketplaces)))
	return marketplaces, nil
}

// Update implements store.MarketplaceStore.Update.
// Returns store.ErrMarketplaceNotFound if the marketplace does not exist.
func (s *PostgresMarketplaceStore) Update(ctx context.Context, m *domain.Marketplace) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := m.Validate(); err != nil {
		log.Warn("marketplace validation failed during update",
			slog.String("error", err.Error()),
			slog.String("marketplace_id", m.ID))
		return err
	}

	tags, urls, schedule, customFields, err := marketplaceJSON(m)
	if err != nil {
		return err
	}

	query := `
		UPDATE marketplaces
		SET name = $1, description = $2, color = $3, logo_url = $4,
			marketplace_type = $5, priority = $6, tags = $7, responsible = $8,
			active = $9, favorite = $10, urls = $11, schedule = $12,
			timezone = $13, custom_fields = $14, updated_at = $15
		WHERE id = $16
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		m.Name,
		m.Description,
		m.Color,
		m.LogoURL,
		m.Type,
		m.Priority,
		tags,
		m.Responsible,
		m.Active,
		m.Favorite,
		urls,
		schedule,
		m.Timezone,
		customFields,
		m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		log.Error("failed to update marketplace",
			slog.String("error", err.Error()),
			slog.String("marketplace_id", m.ID))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "marketplace"); err != nil {
		log.Debug("marketplace not found for update", slog.String("marketplace_id", m.ID))
		return store.ErrMarketplaceNotFound
	}

	log.Info("marketplace updated", slog.String("marketplace_id", m.ID))
	return nil
}

// Delete implements store.MarketplaceStore.Delete.
// Returns store.ErrMarketplaceNotFound if the marketplace does not exist.
func (s *PostgresMarketplaceStore) Delete(ctx context.Context, id string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM marketplaces WHERE id = $1`, id)
	if err != nil {
		if IsForeignKeyViolation(err) {
			// Routines keep a real FK to marketplaces; services check
			// references first, this is the backstop.
			log.Warn("marketplace still referenced",
				slog.String("marketplace_id", id))
			return store.ErrMarketplaceInUse
		}
		log.Error("failed to delete marketplace",
			slog.String("error", err.Error()),
			slog.String("marketplace_id", id))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "marketplace"); err != nil {
		log.Debug("marketplace not found for delete", slog.String("marketplace_id", id))
		return store.ErrMarketplaceNotFound
	}

	log.Info("marketplace deleted", slog.String("marketplace_id", id))
	return nil
}

// CountReferences implements store.MarketplaceStore.CountReferences.
// Tasks keep no FK to marketplaces' routines, so both tables are counted
// explicitly in one round trip.
func (s *PostgresMarketplaceStore) CountReferences(ctx context.Context, id string) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			(SELECT COUNT(*) FROM tasks WHERE marketplace_id = $1) +
			(SELECT COUNT(*) FROM routines WHERE marketplace_id = $1)
	`

	var count int
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		log.Error("failed to count marketplace references",
			slog.String("error", err.Error()),
			slog.String("marketplace_id", id))
		return 0, MapError(err)
	}

	return count, nil
}

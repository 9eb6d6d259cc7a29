package store

import (
	"context"
	"database/sql"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
)

// MarketplaceFilter narrows List results. Zero values mean "no filter".
type MarketplaceFilter struct {
	// Search matches name or description, case-insensitive substring.
	Search string
	// Type filters by marketplace type (e.g., "amazon", "ebay").
	Type string
	// Priority filters by priority level.
	Priority domain.Priority
	// Active filters by the active flag when non-nil.
	Active *bool
	// FavoritesOnly restricts results to favorite marketplaces.
	FavoritesOnly bool
}

// MarketplaceStore defines the interface for marketplace data persistence.
type MarketplaceStore interface {
	// Create saves a new marketplace to the store.
	// Returns ErrDuplicate if a marketplace with the same id already exists.
	// Returns validation errors from the domain Marketplace if data is invalid.
	Create(ctx context.Context, m *domain.Marketplace) error

	// GetByID retrieves a marketplace by its id.
	// Returns ErrMarketplaceNotFound if the marketplace does not exist.
	GetByID(ctx context.Context, id string) (*domain.Marketplace, error)

	// List retrieves marketplaces matching the filter, ordered by name.
	List(ctx context.Context, filter MarketplaceFilter) ([]*domain.Marketplace, error)

	// Update modifies an existing marketplace. The id is immutable.
	// Returns ErrMarketplaceNotFound if the marketplace does not exist.
	Update(ctx context.Context, m *domain.Marketplace) error

	// Delete removes a marketplace from the store by its id.
	// Returns ErrMarketplaceNotFound if the marketplace does not exist.
	// Callers are responsible for checking references first; see CountReferences.
	Delete(ctx context.Context, id string) error

	// CountReferences reports how many tasks and routines reference the
	// marketplace. Used to guard deletion.
	CountReferences(ctx context.Context, id string) (int, error)

	// WithTx returns a new MarketplaceStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) MarketplaceStore
}

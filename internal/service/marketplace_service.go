package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/platform/logger"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

// MarketplaceService provides marketplace-related operations.
type MarketplaceService interface {
	// Create persists a new marketplace. A duplicate id yields
	// store.ErrDuplicate.
	Create(ctx context.Context, m *domain.Marketplace) error

	// Get retrieves a marketplace by id.
	Get(ctx context.Context, id string) (*domain.Marketplace, error)

	// List retrieves marketplaces matching the filter.
	List(ctx context.Context, filter store.MarketplaceFilter) ([]*domain.Marketplace, error)

	// Update persists changes to an existing marketplace.
	Update(ctx context.Context, m *domain.Marketplace) error

	// Delete removes a marketplace. It fails with store.ErrMarketplaceInUse
	// while any routine or task still references it.
	Delete(ctx context.Context, id string) error

	// ToggleFavorite flips the favorite flag and returns the updated marketplace.
	ToggleFavorite(ctx context.Context, id string, now time.Time) (*domain.Marketplace, error)

	// ToggleActive flips the active flag and returns the updated marketplace.
	ToggleActive(ctx context.Context, id string, now time.Time) (*domain.Marketplace, error)
}

// marketplaceServiceImpl implements the MarketplaceService interface.
type marketplaceServiceImpl struct {
	marketplaceStore store.MarketplaceStore
	logger           *slog.Logger
}

// NewMarketplaceService creates a new MarketplaceService.
func NewMarketplaceService(
	marketplaceStore store.MarketplaceStore,
	logger *slog.Logger,
) (MarketplaceService, error) {
	if marketplaceStore == nil {
		return nil, domain.NewValidationError("marketplaceStore", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &marketplaceServiceImpl{
		marketplaceStore: marketplaceStore,
		logger:           logger.With(slog.String("component", "marketplace_service")),
	}, nil
}

// Create implements MarketplaceService.Create.
func (s *marketplaceServiceImpl) Create(ctx context.Context, m *domain.Marketplace) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.marketplaceStore.Create(ctx, m); err != nil {
		return err
	}

	log.Info("marketplace registered",
		slog.String("marketplace_id", m.ID),
		slog.String("type", m.Type))
	return nil
}

// Get implements MarketplaceService.Get.
func (s *marketplaceServiceImpl) Get(ctx context.Context, id string) (*domain.Marketplace, error) {
	return s.marketplaceStore.GetByID(ctx, id)
}

// List implements MarketplaceService.List.
func (s *marketplaceServiceImpl) List(
	ctx context.Context,
	filter store.MarketplaceFilter,
) ([]*domain.Marketplace, error) {
	return s.marketplaceStore.List(ctx, filter)
}

// Update implements MarketplaceService.Update.
func (s *marketplaceServiceImpl) Update(ctx context.Context, m *domain.Marketplace) error {
	return s.marketplaceStore.Update(ctx, m)
}

// Delete implements MarketplaceService.Delete. Deletion is refused while
// routines or tasks still reference the marketplace so their history keeps
// resolving.
func (s *marketplaceServiceImpl) Delete(ctx context.Context, id string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	refs, err := s.marketplaceStore.CountReferences(ctx, id)
	if err != nil {
		return NewServiceError("marketplace", "delete", "failed to count references", err)
	}
	if refs > 0 {
		log.Warn("refusing to delete referenced marketplace",
			slog.String("marketplace_id", id),
			slog.Int("references", refs))
		return store.ErrMarketplaceInUse
	}

	return s.marketplaceStore.Delete(ctx, id)
}

// ToggleFavorite implements MarketplaceService.ToggleFavorite.
func (s *marketplaceServiceImpl) ToggleFavorite(
	ctx context.Context,
	id string,
	now time.Time,
) (*domain.Marketplace, error) {
	m, err := s.marketplaceStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	m.ToggleFavorite(now)
	if err := s.marketplaceStore.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ToggleActive implements MarketplaceService.ToggleActive.
func (s *marketplaceServiceImpl) ToggleActive(
	ctx context.Context,
	id string,
	now time.Time,
) (*domain.Marketplace, error) {
	m, err := s.marketplaceStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	m.ToggleActive(now)
	if err := s.marketplaceStore.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

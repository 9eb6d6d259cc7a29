package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ecomroutine/ecomroutine-api/internal/api/shared"
	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/service"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

// MarketplaceHandler serves marketplace CRUD and toggle endpoints.
type MarketplaceHandler struct {
	marketplaceService service.MarketplaceService
	validator          *validator.Validate
	logger             *slog.Logger
	timeNow            func() time.Time
}

// NewMarketplaceHandler creates a MarketplaceHandler. Panics if
// marketplaceService is nil.
func NewMarketplaceHandler(marketplaceService service.MarketplaceService, logger *slog.Logger) *MarketplaceHandler {
	if marketplaceService == nil {
		panic("marketplaceService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketplaceHandler{
		marketplaceService: marketplaceService,
		validator:          validator.New(),
		logger:             logger.With(slog.String("component", "marketplace_handler")),
		timeNow:            time.Now,
	}
}

// Create handles POST /api/marketplaces.
func (h *MarketplaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req MarketplaceCreateRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	m := req.ToDomain(h.timeNow().UTC())
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if err := m.Validate(); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	if err := h.marketplaceService.Create(r.Context(), m); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusCreated, m)
}

// List handles GET /api/marketplaces with optional search, type, priority,
// active, and favorites query filters.
func (h *MarketplaceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.MarketplaceFilter{
		Search:        q.Get("search"),
		Type:          q.Get("type"),
		Priority:      domain.Priority(q.Get("priority")),
		FavoritesOnly: q.Get("favorites") == "true",
	}
	if raw := q.Get("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}

	marketplaces, err := h.marketplaceService.List(r.Context(), filter)
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithList(w, http.StatusOK, marketplaces, len(marketplaces))
}

// Get handles GET /api/marketplaces/{id}.
func (h *MarketplaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathStringID(w, r)
	if !ok {
		return
	}

	m, err := h.marketplaceService.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusOK, m)
}

// Update handles PUT /api/marketplaces/{id} as a partial merge.
func (h *MarketplaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathStringID(w, r)
	if !ok {
		return
	}

	var req MarketplaceUpdateRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	m, err := h.marketplaceService.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	req.Apply(m, h.timeNow().UTC())
	if err := m.Validate(); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	if err := h.marketplaceService.Update(r.Context(), m); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusOK, m)
}

// Delete handles DELETE /api/marketplaces/{id}. Marketplaces still
// referenced by routines or tasks cannot be deleted.
func (h *MarketplaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathStringID(w, r)
	if !ok {
		return
	}

	if err := h.marketplaceService.Delete(r.Context(), id); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithMessage(w, http.StatusOK, "Marketplace deleted")
}

// ToggleFavorite handles POST /api/marketplaces/{id}/toggle-favorite.
func (h *MarketplaceHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.marketplaceService.ToggleFavorite)
}

// ToggleActive handles POST /api/marketplaces/{id}/toggle-active.
func (h *MarketplaceHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.marketplaceService.ToggleActive)
}

func (h *MarketplaceHandler) toggle(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id string, now time.Time) (*domain.Marketplace, error),
) {
	id, ok := pathStringID(w, r)
	if !ok {
		return
	}

	m, err := fn(r.Context(), id, h.timeNow().UTC())
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusOK, m)
}

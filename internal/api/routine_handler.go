package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ecomroutine/ecomroutine-api/internal/api/shared"
	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/service"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

// RoutineHandler serves routine CRUD, execution, and statistics endpoints.
type RoutineHandler struct {
	routineService service.RoutineService
	validator      *validator.Validate
	logger         *slog.Logger
	timeNow        func() time.Time
}

// NewRoutineHandler creates a RoutineHandler. Panics if routineService is nil.
func NewRoutineHandler(routineService service.RoutineService, logger *slog.Logger) *RoutineHandler {
	if routineService == nil {
		panic("routineService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RoutineHandler{
		routineService: routineService,
		validator:      validator.New(),
		logger:         logger.With(slog.String("component", "routine_handler")),
		timeNow:        time.Now,
	}
}

// Create handles POST /api/routines.
func (h *RoutineHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req RoutineCreateRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	routine := req.ToDomain(h.timeNow().UTC())
	if err := routine.Validate(); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	if err := h.routineService.Create(r.Context(), routine); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusCreated, routine)
}

// List handles GET /api/routines with optional search, status, frequency,
// and marketplace query filters.
func (h *RoutineHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RoutineFilter{
		Search:        q.Get("search"),
		Status:        domain.RoutineStatus(q.Get("status")),
		Frequency:     domain.Frequency(q.Get("frequency")),
		MarketplaceID: q.Get("marketplace"),
	}

	routines, err := h.routineService.List(r.Context(), filter)
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithList(w, http.StatusOK, routines, len(routines))
}

// Stats handles GET /api/routines/stats.
func (h *RoutineHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.routineService.Stats(r.Context(), h.timeNow().UTC())
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusOK, stats)
}

// Get handles GET /api/routines/{id}, template list included.
func (h *RoutineHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	routine, err := h.routineService.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusOK, routine)
}

// Update handles PUT /api/routines/{id} as a partial merge. A routineTasks
// array in the payload replaces the template list wholesale.
func (h *RoutineHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req RoutineUpdateRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	routine, err := h.routineService.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	req.Apply(routine, h.timeNow().UTC())
	if err := routine.Validate(); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	if err := h.routineService.Update(r.Context(), routine); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	// Re-read so replaced templates come back with their ids.
	updated, err := h.routineService.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/routines/{id}. Tasks already materialized from
// the routine stay around.
func (h *RoutineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.routineService.Delete(r.Context(), id); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithMessage(w, http.StatusOK, "Routine deleted")
}

// Execute handles POST /api/routines/{id}/execute: materializes the
// routine's templates into tasks and advances its schedule.
func (h *RoutineHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.routineService.Execute(r.Context(), id, h.timeNow().UTC())
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusOK, result)
}

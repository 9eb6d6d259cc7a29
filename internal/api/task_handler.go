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

// TaskHandler serves task CRUD, lifecycle transitions, and the daily view
// and statistics endpoints.
type TaskHandler struct {
	taskService  service.TaskService
	statsService service.StatsService
	validator    *validator.Validate
	logger       *slog.Logger
	timeNow      func() time.Time
}

// NewTaskHandler creates a TaskHandler. Panics if taskService or
// statsService is nil.
func NewTaskHandler(taskService service.TaskService, statsService service.StatsService, logger *slog.Logger) *TaskHandler {
	if taskService == nil {
		panic("taskService cannot be nil")
	}
	if statsService == nil {
		panic("statsService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		taskService:  taskService,
		statsService: statsService,
		validator:    validator.New(),
		logger:       logger.With(slog.String("component", "task_handler")),
		timeNow:      time.Now,
	}
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req TaskCreateRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	task := req.ToDomain(h.timeNow().UTC())
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if err := task.Validate(); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	if err := h.taskService.Create(r.Context(), task); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusCreated, task)
}

// List handles GET /api/tasks with optional search, status, priority,
// marketplace, assignee, and due query filters. due accepts today, week,
// month, or overdue.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.TaskFilter{
		Search:        q.Get("search"),
		Status:        domain.TaskStatus(q.Get("status")),
		Priority:      domain.Priority(q.Get("priority")),
		MarketplaceID: q.Get("marketplace"),
	}
	if raw := q.Get("assignee"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.AssigneeID = &id
		}
	}
	if bucket := store.DateBucket(q.Get("due")); bucket != "" {
		if !bucket.IsValid() {
			shared.RespondWithError(w, http.StatusBadRequest,
				"Due filter must be today, week, month, or overdue")
			return
		}
		filter.DueBucket = bucket
		filter.Now = h.timeNow().UTC()
	}

	tasks, err := h.taskService.List(r.Context(), filter)
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithList(w, http.StatusOK, tasks, len(tasks))
}

// Daily handles GET /api/tasks/daily, the day-view partition of today's
// tasks with its progress summary.
func (h *TaskHandler) Daily(w http.ResponseWriter, r *http.Request) {
	result, err := h.statsService.DailyTasks(r.Context(), h.timeNow().UTC())
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusOK, result)
}

// Stats handles GET /api/tasks/stats.
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.TaskStats(r.Context(), h.timeNow().UTC())
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusOK, stats)
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathStringID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusOK, task)
}

// Update handles PUT /api/tasks/{id} as a partial merge.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathStringID(w, r)
	if !ok {
		return
	}

	var req TaskUpdateRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	task, err := h.taskService.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	req.Apply(task, h.timeNow().UTC())
	if err := task.Validate(); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	if err := h.taskService.Update(r.Context(), task); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusOK, task)
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathStringID(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), id); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithMessage(w, http.StatusOK, "Task deleted")
}

// Start handles POST /api/tasks/{id}/start.
func (h *TaskHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.taskService.Start)
}

// Complete handles POST /api/tasks/{id}/complete.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.taskService.Complete)
}

// Pause handles POST /api/tasks/{id}/pause.
func (h *TaskHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.taskService.Pause)
}

func (h *TaskHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id string, now time.Time) (*domain.Task, error),
) {
	id, ok := pathStringID(w, r)
	if !ok {
		return
	}

	task, err := fn(r.Context(), id, h.timeNow().UTC())
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusOK, task)
}

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ecomroutine/ecomroutine-api/internal/api/shared"
	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/service"
)

// UserHandler serves account management endpoints. Listing, creating, and
// deleting accounts is admin-only (enforced in the router); reads and
// updates allow either the account owner or an admin.
type UserHandler struct {
	userService service.UserService
	validator   *validator.Validate
	logger      *slog.Logger
	timeNow     func() time.Time
}

// NewUserHandler creates a UserHandler. Panics if userService is nil.
func NewUserHandler(userService service.UserService, logger *slog.Logger) *UserHandler {
	if userService == nil {
		panic("userService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		userService: userService,
		validator:   validator.New(),
		logger:      logger.With(slog.String("component", "user_handler")),
		timeNow:     time.Now,
	}
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithList(w, http.StatusOK, users, len(users))
}

// Create handles POST /api/users, the admin path that can set role and
// active state directly.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req UserCreateRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	now := h.timeNow().UTC()
	user := &domain.User{
		Username:             req.Username,
		Email:                req.Email,
		Password:             req.Password,
		Name:                 req.Name,
		Role:                 domain.RoleUser,
		Active:               true,
		NotificationsEnabled: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if req.Role != "" {
		user.Role = domain.Role(req.Role)
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := h.userService.Create(r.Context(), user); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}. Owner or admin only.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !actor.IsAdmin() && actor.ID != id {
		shared.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id} as a partial merge. Owner or admin
// only; role and active changes are admin-only.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !actor.IsAdmin() && actor.ID != id {
		shared.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	var req UserUpdateRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	if !actor.IsAdmin() && (req.Role != nil || req.Active != nil) {
		shared.RespondWithError(w, http.StatusForbidden, "Only admins can change role or active state")
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	req.Apply(user, h.timeNow().UTC())
	if err := h.userService.Update(r.Context(), user); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{id}. Admin-only; admins cannot delete
// their own account.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), actor.ID, id); err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithMessage(w, http.StatusOK, "User deleted")
}

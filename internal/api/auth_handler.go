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

// AuthHandler serves registration, login, and session endpoints.
type AuthHandler struct {
	userService service.UserService
	validator   *validator.Validate
	logger      *slog.Logger
	timeNow     func() time.Time
}

// NewAuthHandler creates an AuthHandler. Panics if userService is nil.
func NewAuthHandler(userService service.UserService, logger *slog.Logger) *AuthHandler {
	if userService == nil {
		panic("userService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		userService: userService,
		validator:   validator.New(),
		logger:      logger.With(slog.String("component", "auth_handler")),
		timeNow:     time.Now,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	now := h.timeNow().UTC()
	user := &domain.User{
		Username:             req.Username,
		Email:                req.Email,
		Password:             req.Password,
		Name:                 req.Name,
		NotificationsEnabled: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	token, err := h.userService.Register(r.Context(), user, now)
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusCreated, AuthResponse{User: user, Token: token})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, token, err := h.userService.Login(r.Context(), req.Login, req.Password, h.timeNow().UTC())
	if err != nil {
		HandleAPIError(w, r, h.logger, err)
		return
	}

	shared.RespondWithData(w, http.StatusOK, AuthResponse{User: user, Token: token})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so there is
// nothing to revoke server-side; clients discard the token.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	shared.RespondWithMessage(w, http.StatusOK, "Logged out")
}

// Me handles GET /api/auth/me, returning the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	shared.RespondWithData(w, http.StatusOK, user)
}

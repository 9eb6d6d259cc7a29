package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ecomroutine/ecomroutine-api/internal/api/shared"
	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/service/auth"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

// AuthMiddleware validates bearer tokens and resolves the account behind
// them. Handlers downstream read the user from the request context.
type AuthMiddleware struct {
	jwtService auth.JWTService
	userStore  store.UserStore
	logger     *slog.Logger
}

// NewAuthMiddleware creates an AuthMiddleware. Panics if jwtService or
// userStore is nil.
func NewAuthMiddleware(jwtService auth.JWTService, userStore store.UserStore, logger *slog.Logger) *AuthMiddleware {
	if jwtService == nil {
		panic("jwtService cannot be nil")
	}
	if userStore == nil {
		panic("userStore cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		jwtService: jwtService,
		userStore:  userStore,
		logger:     logger.With(slog.String("component", "auth_middleware")),
	}
}

// Authenticate rejects requests without a valid bearer token for an active
// account, and injects the resolved user into the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			shared.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			shared.RespondWithError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, http.StatusUnauthorized, "Token has expired")
			default:
				shared.RespondWithError(w, http.StatusUnauthorized, "Invalid authentication token")
			}
			return
		}

		user, err := m.userStore.GetByID(r.Context(), claims.UserID)
		if err != nil {
			// Token for a deleted account; same response as a bad token.
			shared.RespondWithErrorAndLog(w, r, m.logger, err,
				http.StatusUnauthorized, "Invalid authentication token")
			return
		}
		if !user.Active {
			shared.RespondWithError(w, http.StatusUnauthorized, "Account is disabled")
			return
		}

		ctx := context.WithValue(r.Context(), shared.CurrentUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin allows only admin accounts through. Must run after
// Authenticate.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(shared.CurrentUserKey).(*domain.User)
		if !ok || user == nil {
			shared.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !user.IsAdmin() {
			shared.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

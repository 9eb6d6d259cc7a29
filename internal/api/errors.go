package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ecomroutine/ecomroutine-api/internal/api/shared"
	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/service"
	"github.com/ecomroutine/ecomroutine-api/internal/service/auth"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

// MapErrorToStatusCode translates domain, store, service and auth errors
// into HTTP status codes.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	// 401 Unauthorized
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		service.IsAuthError(err),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// 403 Forbidden
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	// 404 Not Found
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// 400 Bad Request
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, store.ErrInvalidEntity),
		store.IsDuplicateError(err),
		store.IsConflictError(err),
		errors.Is(err, service.ErrSelfDeletion):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for the error. Internal
// details never pass through; 5xx responses get a generic message.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, auth.ErrMissingToken):
		return "Authentication required"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid authentication token"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, service.ErrAccountDisabled):
		return "Account is disabled"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Authentication required"

	case errors.Is(err, service.ErrForbidden):
		return "Insufficient permissions"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrMarketplaceNotFound):
		return "Marketplace not found"
	case errors.Is(err, store.ErrRoutineNotFound):
		return "Routine not found"
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case store.IsNotFoundError(err):
		return "Resource not found"

	case errors.Is(err, store.ErrUsernameExists):
		return "Username is already taken"
	case errors.Is(err, store.ErrEmailExists):
		return "Email is already registered"
	case errors.Is(err, store.ErrMarketplaceInUse):
		return "Marketplace has linked tasks or routines"
	case errors.Is(err, service.ErrSelfDeletion):
		return "You cannot delete your own account"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, store.ErrInvalidEntity),
		store.IsDuplicateError(err),
		store.IsConflictError(err):
		// Domain validation messages are written for clients.
		return capitalizeFirst(err.Error())

	default:
		return "Internal server error"
	}
}

// HandleAPIError maps err to a status and safe message, logs it, and writes
// the failure envelope. The single call handlers make on any error path.
func HandleAPIError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := MapErrorToStatusCode(err)
	shared.RespondWithErrorAndLog(w, r, logger, err, status, GetSafeErrorMessage(err))
}

// SanitizeValidationError converts validator.ValidationErrors into a
// readable message without leaking struct internals.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request payload"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", strings.ToLower(fe.Field()), validationTagMessage(fe)))
	}
	return capitalizeFirst(strings.Join(msgs, "; "))
}

func validationTagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/service"
	"github.com/ecomroutine/ecomroutine-api/internal/service/auth"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"disabled account", service.ErrAccountDisabled, http.StatusUnauthorized},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"not found", store.ErrTaskNotFound, http.StatusNotFound},
		{"validation", domain.NewValidationError("name", "is required", nil), http.StatusBadRequest},
		{"invalid transition", domain.ErrInvalidTransition, http.StatusBadRequest},
		{"duplicate", store.ErrUsernameExists, http.StatusBadRequest},
		{"conflict", store.ErrMarketplaceInUse, http.StatusBadRequest},
		{"self deletion", service.ErrSelfDeletion, http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("lookup: %w", store.ErrRoutineNotFound), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	t.Run("internal errors stay generic", func(t *testing.T) {
		t.Parallel()
		err := errors.New("pq: connection refused host=10.0.0.8")
		got := GetSafeErrorMessage(err)
		assert.Equal(t, "Internal server error", got)
	})

	t.Run("domain validation passes through", func(t *testing.T) {
		t.Parallel()
		err := domain.NewValidationError("frequency", "must be daily, weekly, or monthly", nil)
		got := GetSafeErrorMessage(err)
		assert.Contains(t, got, "frequency")
	})

	t.Run("entity sentinels get fixed messages", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Marketplace not found", GetSafeErrorMessage(store.ErrMarketplaceNotFound))
		assert.Equal(t, "Email is already registered", GetSafeErrorMessage(store.ErrEmailExists))
	})
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	validate := validator.New()
	err := validate.Struct(RegisterRequest{Username: "ab", Email: "nope", Password: "short"})
	msg := SanitizeValidationError(err)

	assert.Contains(t, msg, "username")
	assert.Contains(t, msg, "email")
	assert.Contains(t, msg, "password")
	assert.NotContains(t, msg, "RegisterRequest")

	assert.Equal(t, "Invalid request payload", SanitizeValidationError(errors.New("not a validator error")))
}

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ecomroutine/ecomroutine-api/internal/api/shared"
	"github.com/ecomroutine/ecomroutine-api/internal/domain"
)

// decodeAndValidate decodes the JSON body into req and runs its validation
// tags. On failure it writes the 400 response itself and returns false; the
// caller just returns.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, req any) bool {
	if err := shared.DecodeJSON(r, req); err != nil {
		shared.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	if err := shared.ValidateRequest(validate, req); err != nil {
		shared.RespondWithError(w, http.StatusBadRequest, SanitizeValidationError(err))
		return false
	}
	return true
}

// pathID extracts a numeric {id} path parameter. On failure it writes the
// 400 response and returns false.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		shared.RespondWithError(w, http.StatusBadRequest, "Invalid id in URL")
		return 0, false
	}
	return id, true
}

// pathStringID extracts a non-empty string {id} path parameter.
func pathStringID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		shared.RespondWithError(w, http.StatusBadRequest, "Invalid id in URL")
		return "", false
	}
	return raw, true
}

// currentUser returns the authenticated user injected by the auth
// middleware. A missing user means the route was wired without the
// middleware; respond 401 rather than panic.
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := r.Context().Value(shared.CurrentUserKey).(*domain.User)
	if !ok || user == nil {
		shared.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return user, true
}

package api

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
)

func newUserRouter(svc *fakeUserService) chi.Router {
	h := NewUserHandler(svc, slog.Default())
	h.timeNow = fixedClock

	r := chi.NewRouter()
	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
	return r
}

func seedUsers(svc *fakeUserService) (admin, regular *domain.User) {
	admin = &domain.User{ID: 1, Username: "root", Email: "root@example.com", Role: domain.RoleAdmin, Active: true}
	regular = &domain.User{ID: 2, Username: "alice", Email: "alice@example.com", Role: domain.RoleUser, Active: true}
	svc.items[1] = admin
	svc.items[2] = regular
	svc.nextID = 3
	return admin, regular
}

func TestUserHandlerList(t *testing.T) {
	t.Parallel()

	svc := newFakeUserService()
	seedUsers(svc)
	router := newUserRouter(svc)

	rec, env := doJSON(t, router, http.MethodGet, "/api/users", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Total)
	assert.Equal(t, 2, *env.Total)
}

func TestUserHandlerCreate(t *testing.T) {
	t.Parallel()

	svc := newFakeUserService()
	router := newUserRouter(svc)

	rec, env := doJSON(t, router, http.MethodPost, "/api/users", UserCreateRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "strong-password",
		Role:     "admin",
	}, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got domain.User
	decodeData(t, env, &got)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.True(t, got.Active)
}

func TestUserHandlerGet(t *testing.T) {
	t.Parallel()

	svc := newFakeUserService()
	admin, regular := seedUsers(svc)
	router := newUserRouter(svc)

	t.Run("owner reads own account", func(t *testing.T) {
		t.Parallel()
		rec, env := doJSON(t, router, http.MethodGet, "/api/users/2", nil, regular)
		require.Equal(t, http.StatusOK, rec.Code)
		var got domain.User
		decodeData(t, env, &got)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("admin reads any account", func(t *testing.T) {
		t.Parallel()
		rec, _ := doJSON(t, router, http.MethodGet, "/api/users/2", nil, admin)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("regular user blocked from others", func(t *testing.T) {
		t.Parallel()
		rec, _ := doJSON(t, router, http.MethodGet, "/api/users/1", nil, regular)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestUserHandlerUpdate(t *testing.T) {
	t.Parallel()

	t.Run("owner updates profile", func(t *testing.T) {
		t.Parallel()
		svc := newFakeUserService()
		_, regular := seedUsers(svc)
		router := newUserRouter(svc)

		name := "Alice Ops"
		rec, env := doJSON(t, router, http.MethodPut, "/api/users/2", UserUpdateRequest{
			Name: &name,
		}, regular)

		require.Equal(t, http.StatusOK, rec.Code)
		var got domain.User
		decodeData(t, env, &got)
		assert.Equal(t, "Alice Ops", got.Name)
	})

	t.Run("role change requires admin", func(t *testing.T) {
		t.Parallel()
		svc := newFakeUserService()
		_, regular := seedUsers(svc)
		router := newUserRouter(svc)

		role := "admin"
		rec, env := doJSON(t, router, http.MethodPut, "/api/users/2", UserUpdateRequest{
			Role: &role,
		}, regular)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, env.Error, "admins")
	})

	t.Run("admin changes role and active state", func(t *testing.T) {
		t.Parallel()
		svc := newFakeUserService()
		admin, _ := seedUsers(svc)
		router := newUserRouter(svc)

		role := "admin"
		active := false
		rec, env := doJSON(t, router, http.MethodPut, "/api/users/2", UserUpdateRequest{
			Role: &role, Active: &active,
		}, admin)

		require.Equal(t, http.StatusOK, rec.Code)
		var got domain.User
		decodeData(t, env, &got)
		assert.Equal(t, domain.RoleAdmin, got.Role)
		assert.False(t, got.Active)
	})
}

func TestUserHandlerDelete(t *testing.T) {
	t.Parallel()

	t.Run("admin deletes another user", func(t *testing.T) {
		t.Parallel()
		svc := newFakeUserService()
		admin, _ := seedUsers(svc)
		router := newUserRouter(svc)

		rec, env := doJSON(t, router, http.MethodDelete, "/api/users/2", nil, admin)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "User deleted", env.Message)
	})

	t.Run("self-deletion maps to 400", func(t *testing.T) {
		t.Parallel()
		svc := newFakeUserService()
		admin, _ := seedUsers(svc)
		router := newUserRouter(svc)

		rec, env := doJSON(t, router, http.MethodDelete, "/api/users/1", nil, admin)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "You cannot delete your own account", env.Error)
	})
}

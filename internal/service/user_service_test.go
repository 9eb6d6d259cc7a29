package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

func newUserServiceForTest(t *testing.T, users *fakeUserStore) UserService {
	t.Helper()
	svc, err := NewUserService(users, &fakeJWTService{}, plainHasher{}, plainHasher{}, slog.Default())
	require.NoError(t, err)
	return svc
}

func registerTestUser(t *testing.T, svc UserService, username, email, password string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(username, email, password)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), user, time.Now().UTC())
	require.NoError(t, err)
	return user
}

func TestUserServiceRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("hashes password and issues token", func(t *testing.T) {
		users := newFakeUserStore()
		svc := newUserServiceForTest(t, users)

		user, err := domain.NewUser("maria", "maria@example.com", "pw123")
		require.NoError(t, err)

		token, err := svc.Register(ctx, user, now)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Empty(t, user.Password, "plaintext must be cleared")
		assert.Equal(t, "hashed:pw123", user.HashedPassword)
		assert.Equal(t, domain.RoleUser, user.Role)
		assert.True(t, user.Active)
	})

	t.Run("role cannot be smuggled in", func(t *testing.T) {
		users := newFakeUserStore()
		svc := newUserServiceForTest(t, users)

		user, err := domain.NewUser("eve", "eve@example.com", "pw123")
		require.NoError(t, err)
		user.Role = domain.RoleAdmin

		_, err = svc.Register(ctx, user, now)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleUser, user.Role)
	})

	t.Run("duplicate username", func(t *testing.T) {
		users := newFakeUserStore()
		svc := newUserServiceForTest(t, users)
		registerTestUser(t, svc, "maria", "maria@example.com", "pw123")

		dup, err := domain.NewUser("maria", "other@example.com", "pw456")
		require.NoError(t, err)
		_, err = svc.Register(ctx, dup, now)
		assert.ErrorIs(t, err, store.ErrUsernameExists)
	})
}

func TestUserServiceCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("preserves role and active flag", func(t *testing.T) {
		users := newFakeUserStore()
		svc := newUserServiceForTest(t, users)

		user, err := domain.NewUser("boss", "boss@example.com", "pw123")
		require.NoError(t, err)
		user.Role = domain.RoleAdmin
		user.Active = false

		require.NoError(t, svc.Create(ctx, user))
		assert.Equal(t, domain.RoleAdmin, user.Role)
		assert.False(t, user.Active)
		assert.Empty(t, user.Password)
		assert.Equal(t, "hashed:pw123", user.HashedPassword)
	})

	t.Run("rejects missing password", func(t *testing.T) {
		users := newFakeUserStore()
		svc := newUserServiceForTest(t, users)

		user, err := domain.NewUser("nopw", "nopw@example.com", "pw123")
		require.NoError(t, err)
		user.Password = ""

		err = svc.Create(ctx, user)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestUserServiceLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (UserService, *fakeUserStore, *domain.User) {
		users := newFakeUserStore()
		svc := newUserServiceForTest(t, users)
		user := registerTestUser(t, svc, "maria", "maria@example.com", "pw123")
		return svc, users, user
	}

	t.Run("by username", func(t *testing.T) {
		svc, _, _ := setup(t)

		user, token, err := svc.Login(ctx, "maria", "pw123", now)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		require.NotNil(t, user.LastLogin)
		assert.Equal(t, now, *user.LastLogin)
	})

	t.Run("by email", func(t *testing.T) {
		svc, _, _ := setup(t)

		_, token, err := svc.Login(ctx, "maria@example.com", "pw123", now)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _, _ := setup(t)

		_, _, err := svc.Login(ctx, "maria", "nope", now)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _, _ := setup(t)

		_, _, err := svc.Login(ctx, "ghost", "pw123", now)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("disabled account", func(t *testing.T) {
		svc, users, user := setup(t)
		users.items[user.ID].Active = false

		_, _, err := svc.Login(ctx, "maria", "pw123", now)
		assert.ErrorIs(t, err, ErrAccountDisabled)
	})
}

func TestUserServiceDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := newFakeUserStore()
	svc := newUserServiceForTest(t, users)
	admin := registerTestUser(t, svc, "admin", "admin@example.com", "pw123")
	other := registerTestUser(t, svc, "worker", "worker@example.com", "pw123")

	t.Run("self-deletion is blocked", func(t *testing.T) {
		err := svc.Delete(ctx, admin.ID, admin.ID)
		assert.ErrorIs(t, err, ErrSelfDeletion)
	})

	t.Run("deleting another user works", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, admin.ID, other.ID))
		_, err := svc.Get(ctx, other.ID)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestUserServiceUpdateRehashesPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := newFakeUserStore()
	svc := newUserServiceForTest(t, users)
	user := registerTestUser(t, svc, "maria", "maria@example.com", "pw123")

	user.Password = "newpass"
	require.NoError(t, svc.Update(ctx, user))
	assert.Equal(t, "hashed:newpass", user.HashedPassword)
	assert.Empty(t, user.Password)
}

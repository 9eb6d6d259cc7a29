package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

func pgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, ConstraintName: constraint}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, MapError(nil))
	})

	t.Run("no rows maps to not found", func(t *testing.T) {
		err := MapError(sql.ErrNoRows)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unique violation maps to duplicate", func(t *testing.T) {
		err := MapError(pgError(uniqueViolationCode, "users_email_key"))
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("foreign key violation maps to invalid entity", func(t *testing.T) {
		err := MapError(pgError(foreignKeyViolationCode, "tasks_marketplace_id_fkey"))
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.Contains(t, err.Error(), "tasks_marketplace_id_fkey")
	})

	t.Run("unmapped errors pass through", func(t *testing.T) {
		original := errors.New("connection refused")
		assert.Same(t, original, MapError(original))
	})
}

func TestViolationPredicates(t *testing.T) {
	t.Parallel()

	unique := pgError(uniqueViolationCode, "users_username_key")
	fk := pgError(foreignKeyViolationCode, "routines_marketplace_id_fkey")

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(unique))

	wrapped := fmt.Errorf("insert failed: %w", unique)
	assert.True(t, IsUniqueViolation(wrapped))

	assert.Equal(t, "routines_marketplace_id_fkey", ConstraintName(fk))
	assert.Empty(t, ConstraintName(errors.New("plain")))
}

func TestMapUserUniqueViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{"username constraint", "users_username_key", store.ErrUsernameExists},
		{"email constraint", "users_email_key", store.ErrEmailExists},
		{"unknown constraint", "users_something_key", store.ErrDuplicate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := mapUserUniqueViolation(pgError(uniqueViolationCode, tc.constraint))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

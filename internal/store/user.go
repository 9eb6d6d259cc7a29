package store

import (
	"context"
	"database/sql"

	"github.com/ecomroutine/ecomroutine-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store. The caller provides
	// HashedPassword; plaintext passwords never reach the store.
	// Returns ErrUsernameExists or ErrEmailExists when the corresponding
	// column is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique id.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByLogin retrieves a user whose username or email matches login.
	// Returns ErrUserNotFound if no user matches.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)

	// List retrieves all users ordered by username.
	List(ctx context.Context) ([]*domain.User, error)

	// Update modifies an existing user. The caller provides the complete
	// user including HashedPassword.
	// Returns ErrUserNotFound if the user does not exist.
	// Returns ErrUsernameExists or ErrEmailExists on uniqueness violations.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user from the store by their id.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a new UserStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) UserStore
}

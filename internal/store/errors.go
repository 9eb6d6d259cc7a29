package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// Entity-specific variants (e.g., ErrTaskNotFound) wrap this error.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a user with the same username).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrConflict is returned when an operation is rejected because it would
	// leave the data in an inconsistent state (e.g., deleting a marketplace
	// that tasks still reference).
	ErrConflict = errors.New("operation conflicts with existing data")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrUserNotFound indicates that the requested user does not exist in the store.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrMarketplaceNotFound indicates that the requested marketplace does not exist in the store.
	ErrMarketplaceNotFound = fmt.Errorf("%w: marketplace", ErrNotFound)

	// ErrRoutineNotFound indicates that the requested routine does not exist in the store.
	ErrRoutineNotFound = fmt.Errorf("%w: routine", ErrNotFound)

	// ErrTaskNotFound indicates that the requested task does not exist in the store.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrUsernameExists indicates that a user with the given username already exists.
	ErrUsernameExists = fmt.Errorf("%w: username", ErrDuplicate)

	// ErrEmailExists indicates that a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// Entity-specific conflicts

	// ErrMarketplaceInUse indicates that a marketplace cannot be deleted because
	// tasks or routines still reference it.
	ErrMarketplaceInUse = fmt.Errorf("%w: marketplace is referenced by tasks or routines", ErrConflict)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsConflictError checks if the error is any kind of state-conflict error.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}

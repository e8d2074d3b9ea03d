package repositories

import (
	"context"
	"errors"

	"authapi/internal/models"
)

var (
	// ErrDuplicateName is returned by Create when the name is already taken.
	ErrDuplicateName = errors.New("user name already exists")
	// ErrUserNotFound is returned by lookups that match no record.
	ErrUserNotFound = errors.New("user not found")
	// ErrStoreUnavailable wraps any failure of the underlying storage.
	ErrStoreUnavailable = errors.New("user store unavailable")
)

// UserRepository defines the interface for user data access.
// Create must be atomic with respect to name uniqueness.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByName(ctx context.Context, name string) (*models.User, error)
	GetByToken(ctx context.Context, token string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

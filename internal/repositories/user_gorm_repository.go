package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"authapi/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Migrate creates or updates the users table together with its indexes.
func (r *GORMUserRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&models.User{}); err != nil {
		return fmt.Errorf("%w: failed to migrate users table: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Create inserts a new user. The unique index on name decides concurrent races.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateName, user.Name)
		}
		return fmt.Errorf("%w: failed to create user: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// GetByName retrieves a user by their exact name.
func (r *GORMUserRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	return r.first(ctx, "name = ?", name)
}

// GetByToken retrieves the owner of an access token.
func (r *GORMUserRepository) GetByToken(ctx context.Context, token string) (*models.User, error) {
	return r.first(ctx, "access_token = ?", token)
}

// GetByID retrieves a user by their ID.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GORMUserRepository) first(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: failed to query user: %w", ErrStoreUnavailable, err)
	}
	return &user, nil
}

// isUniqueViolation recognises duplicate-key failures from both postgres and sqlite.
// Drivers that do not translate errors still report the constraint in the message.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}

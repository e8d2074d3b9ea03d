package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"authapi/internal/models"

	"github.com/google/uuid"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	users   map[string]models.User // keyed by ID
	byName  map[string]string
	byToken map[string]string
	mu      sync.RWMutex
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[string]models.User),
		byName:  make(map[string]string),
		byToken: make(map[string]string),
	}
}

// Create adds a new user unless the name is taken.
func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[user.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, user.Name)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.users[user.ID] = *user
	r.byName[user.Name] = user.ID
	r.byToken[user.AccessToken] = user.ID
	return nil
}

// GetByName returns a user by name.
func (r *MemoryUserRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byName, name)
}

// GetByToken returns the owner of a token.
func (r *MemoryUserRepository) GetByToken(ctx context.Context, token string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byToken, token)
}

// GetByID returns a user by ID.
func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) lookup(index map[string]string, key string) (*models.User, error) {
	id, ok := index[key]
	if !ok {
		return nil, ErrUserNotFound
	}
	user := r.users[id]
	return &user, nil
}

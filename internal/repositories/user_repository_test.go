package repositories_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"authapi/internal/models"
	"authapi/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGORMRepository(t *testing.T) (*repositories.GORMUserRepository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	repo := repositories.NewGORMUserRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo, db
}

// forEachRepository runs the same contract test against every implementation.
func forEachRepository(t *testing.T, test func(t *testing.T, repo repositories.UserRepository)) {
	t.Run("gorm", func(t *testing.T) {
		repo, _ := newGORMRepository(t)
		test(t, repo)
	})
	t.Run("memory", func(t *testing.T) {
		test(t, repositories.NewMemoryUserRepository())
	})
}

func newUser(name string) *models.User {
	return &models.User{
		Name:         name,
		PasswordHash: "hash-of-" + name,
		AccessToken:  "token-of-" + name,
	}
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo repositories.UserRepository) {
		ctx := context.Background()
		user := newUser("alice")
		require.NoError(t, repo.Create(ctx, user))
		assert.NotEmpty(t, user.ID)
		assert.False(t, user.CreatedAt.IsZero())

		byName, err := repo.GetByName(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)
		assert.Equal(t, "hash-of-alice", byName.PasswordHash)

		byToken, err := repo.GetByToken(ctx, "token-of-alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byToken.ID)

		byID, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Name)
	})
}

func TestUserRepository_NotFound(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo repositories.UserRepository) {
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, newUser("alice")))

		_, err := repo.GetByName(ctx, "Alice")
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)
		_, err = repo.GetByToken(ctx, "token-of-bob")
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)
		_, err = repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)
	})
}

func TestUserRepository_DuplicateName(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo repositories.UserRepository) {
		ctx := context.Background()
		first := newUser("alice")
		require.NoError(t, repo.Create(ctx, first))

		second := newUser("alice")
		second.AccessToken = "another-token"
		err := repo.Create(ctx, second)
		require.Error(t, err)
		assert.ErrorIs(t, err, repositories.ErrDuplicateName)
		assert.NotErrorIs(t, err, repositories.ErrStoreUnavailable)

		stored, err := repo.GetByName(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, first.ID, stored.ID)
		assert.Equal(t, first.AccessToken, stored.AccessToken)

		_, err = repo.GetByToken(ctx, "another-token")
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)
	})
}

func TestUserRepository_ConcurrentCreate(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo repositories.UserRepository) {
		ctx := context.Background()
		const n = 10

		var created, duplicates atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				user := newUser("racer")
				user.AccessToken = fmt.Sprintf("token-%d", i)
				err := repo.Create(ctx, user)
				switch {
				case err == nil:
					created.Add(1)
				case assert.ErrorIs(t, err, repositories.ErrDuplicateName):
					duplicates.Add(1)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), created.Load())
		assert.Equal(t, int32(n-1), duplicates.Load())
	})
}

func TestGORMUserRepository_StoreUnavailable(t *testing.T) {
	repo, db := newGORMRepository(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	ctx := context.Background()
	err = repo.Create(ctx, newUser("alice"))
	assert.ErrorIs(t, err, repositories.ErrStoreUnavailable)
	_, err = repo.GetByName(ctx, "alice")
	assert.ErrorIs(t, err, repositories.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, repositories.ErrUserNotFound)
	_, err = repo.GetByToken(ctx, "token-of-alice")
	assert.ErrorIs(t, err, repositories.ErrStoreUnavailable)
}

func TestGORMUserRepository_Indexes(t *testing.T) {
	_, db := newGORMRepository(t)
	migrator := db.Migrator()

	assert.True(t, migrator.HasTable(&models.User{}))
	assert.True(t, migrator.HasIndex(&models.User{}, "Name"))
	assert.True(t, migrator.HasIndex(&models.User{}, "AccessToken"))
}

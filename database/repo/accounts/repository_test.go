package accounts

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anoixa/clone-gallery/database/dbtest"
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(email, username string) *models.User {
	return &models.User{
		Email:        email,
		Username:     username,
		Name:         username,
		PasswordHash: "$argon2id$placeholder",
		Role:         models.RoleVisitor,
		IsActive:     true,
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := NewRepository(dbtest.NewProvider(t))
	ctx := context.Background()

	u := newUser("Alice@Example.com", "alice")
	require.NoError(t, repo.Create(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.JoinedAt.IsZero())

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	byEmail, err := repo.GetByIdentifier(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byName, err := repo.GetByIdentifier(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRepository_DuplicateIdentity(t *testing.T) {
	repo := NewRepository(dbtest.NewProvider(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("bob@example.com", "bob")))

	err := repo.Create(ctx, newUser("bob@example.com", "bobby"))
	assert.ErrorIs(t, err, errs.ErrDuplicateIdentity)

	err = repo.Create(ctx, newUser("other@example.com", "bob"))
	assert.ErrorIs(t, err, errs.ErrDuplicateIdentity)
}

// 并发注册相同用户名，只能成功一次
func TestRepository_ConcurrentDuplicate(t *testing.T) {
	repo := NewRepository(dbtest.NewProvider(t))
	ctx := context.Background()

	const n = 16
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		dupes     atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Create(ctx, newUser(fmt.Sprintf("racer%d@example.com", i), "racer"))
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, errs.ErrDuplicateIdentity):
				dupes.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(n-1), dupes.Load())
}

func TestRepository_Updates(t *testing.T) {
	repo := NewRepository(dbtest.NewProvider(t))
	ctx := context.Background()

	u := newUser("carol@example.com", "carol")
	require.NoError(t, repo.Create(ctx, u))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.TouchLastLogin(ctx, u.ID, at))
	require.NoError(t, repo.SetActive(ctx, u.ID, false))
	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "$argon2id$new"))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.True(t, got.LastLogin.Equal(at))
	assert.False(t, got.IsActive)
	assert.Equal(t, "$argon2id$new", got.PasswordHash)

	assert.ErrorIs(t, repo.SetActive(ctx, "missing", true), errs.ErrNotFound)
}

func TestRepository_ListAndCount(t *testing.T) {
	repo := NewRepository(dbtest.NewProvider(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		u := newUser(fmt.Sprintf("u%d@example.com", i), fmt.Sprintf("u%d", i))
		u.JoinedAt = time.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, u))
	}
	admin := newUser("root@example.com", "root")
	admin.Role = models.RoleAdmin
	require.NoError(t, repo.Create(ctx, admin))

	count, err := repo.CountByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	users, total, err := repo.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, users, 2)
}

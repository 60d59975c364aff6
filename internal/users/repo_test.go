package users

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/sweetdelights-backend/pkg/db/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newSQLiteRepo(t *testing.T) Repository {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))
	return NewRepository(conn)
}

func exerciseRepository(t *testing.T, repo Repository) {
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{Email: " Jo@Example.com ", Name: " Jo ", PasswordHash: "hash"})
	require.NoError(t, err)
	require.Equal(t, "jo@example.com", created.Email)
	require.Equal(t, "Jo", created.Name)

	_, err = repo.Create(ctx, CreateUserDTO{Email: "JO@example.com", Name: "Other", PasswordHash: "hash"})
	require.ErrorIs(t, err, ErrEmailTaken)

	found, err := repo.FindByEmail(ctx, "JO@EXAMPLE.COM")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	_, err = repo.FindByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	at := time.Date(2024, 10, 20, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, created.ID, at))
	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID.LastLoginAt)
	require.True(t, byID.LastLoginAt.Equal(at))

	_, err = repo.Create(ctx, CreateUserDTO{Email: "sam@example.com", Name: "Sam", PasswordHash: "hash"})
	require.NoError(t, err)
	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	limited, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestGormRepository(t *testing.T) {
	exerciseRepository(t, newSQLiteRepo(t))
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository())
}

func TestFromModelOmitsHash(t *testing.T) {
	dto := FromModel(&models.User{Email: "a@b.co", PasswordHash: "secret"})
	require.Equal(t, "a@b.co", dto.Email)
	require.Nil(t, FromModel(nil))
}

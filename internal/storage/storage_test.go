package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/skillify/internal/models"
)

func newAccount(email string) *models.Account {
	return &models.Account{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         "Ada",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// exerciseRepository runs the same contract against any implementation
func exerciseRepository(t *testing.T, repo AccountRepository) {
	ctx := context.Background()
	email := uuid.New().String() + "@example.com"
	a := newAccount(email)

	require.NoError(t, repo.CreateAccount(ctx, a))
	assert.ErrorIs(t, repo.CreateAccount(ctx, newAccount(email)), ErrDuplicateEmail)

	got, err := repo.GetAccountByEmail(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Nil(t, got.LastSignInAt)

	missing, err := repo.GetAccountByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.UpdateAccountName(ctx, a.ID, "Ada Lovelace"))
	at := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.TouchLastSignIn(ctx, a.ID, at))

	got, err = repo.GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada Lovelace", got.Name)
	require.NotNil(t, got.LastSignInAt)
	assert.True(t, at.Equal(*got.LastSignInAt))

	assert.Error(t, repo.UpdateAccountName(ctx, "missing", "x"))
	assert.NoError(t, repo.Ping(ctx))
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository())
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	a := newAccount("ada@example.com")
	require.NoError(t, repo.CreateAccount(ctx, a))

	a.Name = "changed"
	got, _ := repo.GetAccountByID(ctx, a.ID)
	assert.Equal(t, "Ada", got.Name)

	got.Name = "changed again"
	again, _ := repo.GetAccountByEmail(ctx, "ada@example.com")
	assert.Equal(t, "Ada", again.Name)
}

func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("SKILLIFY_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("SKILLIFY_TEST_DATABASE_DSN not set, skipping")
	}

	ctx := context.Background()
	_, err := MigrateDir(ctx, dsn, "../../migrations")
	require.NoError(t, err)

	repo, err := NewPostgresRepository(ctx, PostgresConfig{DSN: dsn})
	require.NoError(t, err)
	defer repo.Close()

	pending, err := NewMigrator(repo.Pool(), os.DirFS("../../migrations")).Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	exerciseRepository(t, repo)
}

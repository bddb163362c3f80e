package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"authkit"
)

// Integration tests are opt-in and require AUTHKIT_TEST_DATABASE_URL
// pointing at a disposable database.

const testSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		identifier    TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name    TEXT NOT NULL DEFAULT '',
		last_name     TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL DEFAULT 'user',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

func mustOpenTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("AUTHKIT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("AUTHKIT_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, testSchema)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE users`)
	require.NoError(t, err)

	return pool
}

func TestCreateAndLookup(t *testing.T) {
	pool := mustOpenTestPool(t)
	provider, err := NewProvider(pool)
	require.NoError(t, err)
	ctx := context.Background()

	created, err := provider.CreateUser(ctx, authkit.CreateUserInput{
		Identifier:   "alice@example.com",
		PasswordHash: "$argon2id$stub",
		FirstName:    "Alice",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.UserID)
	require.Equal(t, "user", created.Role)
	require.False(t, created.CreatedAt.IsZero())

	byIdent, err := provider.GetUserByIdentifier(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, created.UserID, byIdent.UserID)

	byID, err := provider.GetUserByID(ctx, created.UserID)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", byID.Identifier)

	missing, err := provider.GetUserByIdentifier(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestCreateDuplicateIdentifier(t *testing.T) {
	pool := mustOpenTestPool(t)
	provider, err := NewProvider(pool)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = provider.CreateUser(ctx, authkit.CreateUserInput{
		Identifier: "bob", PasswordHash: "h1",
	})
	require.NoError(t, err)

	_, err = provider.CreateUser(ctx, authkit.CreateUserInput{
		Identifier: "bob", PasswordHash: "h2",
	})
	require.ErrorIs(t, err, authkit.ErrDuplicateIdentifier)
}

func TestUpdatePasswordHash(t *testing.T) {
	pool := mustOpenTestPool(t)
	provider, err := NewProvider(pool)
	require.NoError(t, err)
	ctx := context.Background()

	created, err := provider.CreateUser(ctx, authkit.CreateUserInput{
		Identifier: "carol", PasswordHash: "old",
	})
	require.NoError(t, err)

	require.NoError(t, provider.UpdatePasswordHash(ctx, created.UserID, "new"))

	got, err := provider.GetUserByID(ctx, created.UserID)
	require.NoError(t, err)
	require.Equal(t, "new", got.PasswordHash)

	err = provider.UpdatePasswordHash(ctx, "00000000-0000-0000-0000-000000000000", "x")
	require.ErrorIs(t, err, authkit.ErrUserNotFound)
}

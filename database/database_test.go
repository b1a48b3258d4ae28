package database_test

import (
	"context"
	"path/filepath"
	"testing"

	auth "github.com/goliatone/go-blog-auth"
	"github.com/goliatone/go-blog-auth/config"
	"github.com/goliatone/go-blog-auth/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func roleNames(t *testing.T, db *bun.DB) []string {
	t.Helper()

	var roles []auth.Role
	require.NoError(t, db.NewSelect().Model(&roles).Order("id ASC").Scan(context.Background()))

	names := []string{}
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names
}

func TestOpen_MigratesAndSeedsRoles(t *testing.T) {
	db, err := database.Open(context.Background(), config.DatabaseOptions{
		DSN:          ":memory:",
		MaxOpenConns: 1,
	}, nopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER"}, roleNames(t, db))

	ctx := context.Background()
	for _, table := range []string{"users", "users_roles", "categories", "posts", "comments"} {
		var count int
		err := db.NewSelect().TableExpr("sqlite_master").
			ColumnExpr("COUNT(*)").
			Where("type = 'table' AND name = ?", table).
			Scan(ctx, &count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s", table)
	}
}

func TestOpen_ReopenKeepsUsersAndRoleLinks(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseOptions{
		DSN:          "file:" + filepath.Join(t.TempDir(), "blog.db"),
		MaxOpenConns: 1,
	}

	db, err := database.Open(ctx, cfg, nopLogger{})
	require.NoError(t, err)

	hash, err := auth.HashPassword("admin123")
	require.NoError(t, err)
	_, err = auth.NewUsersRepository(db).Register(ctx, &auth.User{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: hash,
	}, auth.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = database.Open(ctx, cfg, nopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER"}, roleNames(t, db), "fixtures reload without duplicates")

	user, err := auth.NewUsersRepository(db).FindByIdentifier(ctx, "admin")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{auth.RoleAdmin, auth.RoleUser}, user.RoleNames())
}

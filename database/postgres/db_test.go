package postgres_test

// Schema validation tests verify that ValidateSchema works correctly.
// ValidateSchema is used when users manually migrate their database and need schema verification.

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/sanketpal/filevault"
	"github.com/sanketpal/filevault/database/postgres"
	"github.com/stretchr/testify/assert"
)

func TestValidateSchema(t *testing.T) {
	t.Run("success - all tables valid", func(t *testing.T) {
		pool := getSharedTestDatabase(t)

		ctx := context.Background()
		suffix := getRandomString(t)
		tables := filevault.Tables{
			Users: fmt.Sprintf("users_%s", suffix),
			Files: fmt.Sprintf("files_%s", suffix),
		}
		defer func() { _ = postgres.DropTables(ctx, pool, tables) }()

		err := postgres.Migrate(ctx, pool, tables)
		assert.NoError(t, err, "failed to migrate")

		err = postgres.ValidateSchema(ctx, pool, tables)
		assert.NoError(t, err, "expected no error for valid schema")
	})

	t.Run("error - table does not exist", func(t *testing.T) {
		pool := getSharedTestDatabase(t)

		ctx := context.Background()
		tables := filevault.Tables{Users: "nonexistent_users", Files: "nonexistent_files"}

		err := postgres.ValidateSchema(ctx, pool, tables)
		assert.Error(t, err, "expected error for nonexistent table")
	})

	t.Run("error - table has incomplete schema", func(t *testing.T) {
		pool := getSharedTestDatabase(t)

		ctx := context.Background()
		suffix := getRandomString(t)
		tables := filevault.Tables{
			Users: fmt.Sprintf("users_%s", suffix),
			Files: fmt.Sprintf("files_%s", suffix),
		}
		defer func() { _ = postgres.DropTables(ctx, pool, tables) }()

		_, err := pool.Exec(ctx, fmt.Sprintf(`
			CREATE TABLE %s (
				username TEXT PRIMARY KEY
			)
		`, pgx.Identifier{tables.Users}.Sanitize()))
		assert.NoError(t, err, "failed to create test table")

		err = postgres.ValidateSchema(ctx, pool, tables)
		assert.Error(t, err, "expected error for incomplete schema")
	})

	t.Run("error - wrong column types", func(t *testing.T) {
		pool := getSharedTestDatabase(t)

		ctx := context.Background()
		suffix := getRandomString(t)
		tables := filevault.Tables{
			Users: fmt.Sprintf("users_%s", suffix),
			Files: fmt.Sprintf("files_%s", suffix),
		}
		defer func() { _ = postgres.DropTables(ctx, pool, tables) }()

		_, err := pool.Exec(ctx, fmt.Sprintf(`
			CREATE TABLE %s (
				username TEXT PRIMARY KEY,
				password_hash TEXT NOT NULL,
				salt BYTEA NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)
		`, pgx.Identifier{tables.Users}.Sanitize()))
		assert.NoError(t, err, "failed to create test table")

		_, err = pool.Exec(ctx, fmt.Sprintf(`
			CREATE TABLE %s (
				id UUID PRIMARY KEY,
				file_identifier TEXT NOT NULL UNIQUE,
				owner TEXT NOT NULL,
				filename TEXT NOT NULL,
				extra JSONB NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)
		`, pgx.Identifier{tables.Files}.Sanitize()))
		assert.NoError(t, err, "failed to create test table")

		err = postgres.ValidateSchema(ctx, pool, tables)
		assert.Error(t, err, "expected error for wrong column types")
	})
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sanketpal/filevault"
)

func createUsersTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			username TEXT PRIMARY KEY,
			password_hash BYTEA NOT NULL,
			salt BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, quotedTable)

	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	return nil
}

func createFilesTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexOwner := pgx.Identifier{fmt.Sprintf("idx_%s_owner", tableName)}.Sanitize()

	// The UNIQUE constraint on file_identifier is the concurrency gate for
	// duplicate uploads.
	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			file_identifier TEXT NOT NULL UNIQUE,
			owner TEXT NOT NULL,
			filename TEXT NOT NULL,
			extra JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s ON %s (owner, created_at);
	`, quotedTable, indexOwner, quotedTable)

	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create files table: %w", err)
	}

	return nil
}

// Migrate creates the credential and file tables if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables filevault.Tables) error {
	if err := createUsersTable(ctx, pool, tables.Users); err != nil {
		return fmt.Errorf("migrate %s: %w", tables.Users, err)
	}

	if err := createFilesTable(ctx, pool, tables.Files); err != nil {
		return fmt.Errorf("migrate %s: %w", tables.Files, err)
	}

	return nil
}

// DropTables removes the credential and file tables. Intended for tests.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables filevault.Tables) error {
	for _, tableName := range []string{tables.Files, tables.Users} {
		quotedTable := pgx.Identifier{tableName}.Sanitize()
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)); err != nil {
			return fmt.Errorf("drop %s: %w", tableName, err)
		}
	}

	return nil
}

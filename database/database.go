package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sanketpal/filevault"
	"github.com/sanketpal/filevault/database/postgres"
	"github.com/sanketpal/filevault/database/sqlite"

	_ "modernc.org/sqlite" // SQLite driver
)

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn"`
	// Tables holds the table names for credential and file records
	Tables filevault.Tables `mapstructure:"tables"`
}

// Repos bundles the repositories backed by one connection.
type Repos struct {
	Users filevault.UserRepo
	Files filevault.FileRepo
}

// Connect establishes a connection to the configured database backend,
// runs migrations, validates the schema, and returns the repositories.
// The returned cleanup function should be called to close the connection.
func Connect(ctx context.Context, cfg Config) (Repos, func(), error) {
	if err := cfg.Tables.Validate(); err != nil {
		return Repos{}, nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		return connectSQLite(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		return connectPostgres(ctx, cfg.DSN, cfg.Tables)
	default:
		return Repos{}, nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

func connectSQLite(ctx context.Context, dsn string, tables filevault.Tables) (Repos, func(), error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return Repos{}, nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return Repos{}, nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err = sqlite.Migrate(ctx, db, tables); err != nil {
		_ = db.Close()
		return Repos{}, nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	if err = sqlite.ValidateSchema(ctx, db, tables); err != nil {
		_ = db.Close()
		return Repos{}, nil, fmt.Errorf("validate sqlite schema: %w", err)
	}

	users, err := sqlite.NewUserRepo(db, tables)
	if err != nil {
		_ = db.Close()
		return Repos{}, nil, fmt.Errorf("create sqlite user repo: %w", err)
	}

	files, err := sqlite.NewFileRepo(db, tables)
	if err != nil {
		_ = db.Close()
		return Repos{}, nil, fmt.Errorf("create sqlite file repo: %w", err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return Repos{Users: users, Files: files}, cleanup, nil
}

func connectPostgres(ctx context.Context, dsn string, tables filevault.Tables) (Repos, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return Repos{}, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return Repos{}, nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err = postgres.Migrate(ctx, pool, tables); err != nil {
		pool.Close()
		return Repos{}, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	if err = postgres.ValidateSchema(ctx, pool, tables); err != nil {
		pool.Close()
		return Repos{}, nil, fmt.Errorf("validate postgres schema: %w", err)
	}

	users, err := postgres.NewUserRepo(pool, tables)
	if err != nil {
		pool.Close()
		return Repos{}, nil, fmt.Errorf("create postgres user repo: %w", err)
	}

	files, err := postgres.NewFileRepo(pool, tables)
	if err != nil {
		pool.Close()
		return Repos{}, nil, fmt.Errorf("create postgres file repo: %w", err)
	}

	return Repos{Users: users, Files: files}, pool.Close, nil
}

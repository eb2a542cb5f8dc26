// Package postgres implements the repo interfaces using PostgreSQL
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sanketpal/filevault"
)

// Tables is an alias for filevault.Tables for package compatibility.
type Tables = filevault.Tables

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// UserRepo persists credentials in a PostgreSQL table.
type UserRepo struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewUserRepo creates a UserRepo over the given pool.
func NewUserRepo(pool *pgxpool.Pool, tables Tables) (*UserRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}
	return &UserRepo{pool: pool, tableName: tables.Users}, nil
}

// Ping verifies database connectivity
func (r *UserRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (filevault.User, error) {
	query := fmt.Sprintf(`
		SELECT username, password_hash, salt, created_at
		FROM %s
		WHERE username = $1
	`, r.tableName)

	var u filevault.User
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&u.Username, &u.PasswordHash, &u.Salt, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return filevault.User{}, filevault.ErrNotFound
		}
		return filevault.User{}, fmt.Errorf("find by username: %w", err)
	}

	return u, nil
}

func (r *UserRepo) Create(ctx context.Context, user filevault.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (username, password_hash, salt)
		VALUES ($1, $2, $3)
	`, r.tableName)

	_, err := r.pool.Exec(ctx, query, user.Username, user.PasswordHash, user.Salt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user: %w", filevault.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// FileRepo persists file records in a PostgreSQL table.
type FileRepo struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewFileRepo creates a FileRepo over the given pool.
func NewFileRepo(pool *pgxpool.Pool, tables Tables) (*FileRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new file repo: %w", err)
	}
	return &FileRepo{pool: pool, tableName: tables.Files}, nil
}

func (r *FileRepo) Get(ctx context.Context, fileIdentifier string) (filevault.FileRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, file_identifier, owner, filename, extra, created_at
		FROM %s
		WHERE file_identifier = $1
	`, r.tableName)

	var record filevault.FileRecord
	var extraJSON []byte

	err := r.pool.QueryRow(ctx, query, fileIdentifier).Scan(
		&record.ID, &record.FileIdentifier, &record.Owner, &record.Filename, &extraJSON, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return filevault.FileRecord{}, filevault.ErrNotFound
		}
		return filevault.FileRecord{}, fmt.Errorf("get: %w", err)
	}

	if err := json.Unmarshal(extraJSON, &record.Extra); err != nil {
		return filevault.FileRecord{}, fmt.Errorf("get: parse extra: %w", err)
	}

	return record, nil
}

func (r *FileRepo) Insert(ctx context.Context, record filevault.FileRecord) (filevault.FileRecord, error) {
	extraJSON, err := marshalExtra(record.Extra)
	if err != nil {
		return filevault.FileRecord{}, fmt.Errorf("insert: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (file_identifier, owner, filename, extra)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, r.tableName)

	err = r.pool.QueryRow(ctx, query,
		record.FileIdentifier, record.Owner, record.Filename, extraJSON,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return filevault.FileRecord{}, fmt.Errorf("insert: %w", filevault.ErrConflict)
		}
		return filevault.FileRecord{}, fmt.Errorf("insert: %w", err)
	}

	return record, nil
}

func (r *FileRepo) Delete(ctx context.Context, fileIdentifier string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE file_identifier = $1
	`, r.tableName)

	result, err := r.pool.Exec(ctx, query, fileIdentifier)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete: %w", filevault.ErrNotFound)
	}

	return nil
}

func (r *FileRepo) ListByOwner(ctx context.Context, owner string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT file_identifier
		FROM %s
		WHERE owner = $1
		ORDER BY created_at, file_identifier
	`, r.tableName)

	rows, err := r.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("list by owner: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list by owner: scan: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list by owner: rows: %w", err)
	}

	return ids, nil
}

func (r *FileRepo) ListAll(ctx context.Context) ([]filevault.FileRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, file_identifier, owner, filename, extra, created_at
		FROM %s
		ORDER BY created_at, file_identifier
	`, r.tableName)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all: %w", err)
	}
	defer rows.Close()

	records := []filevault.FileRecord{}
	for rows.Next() {
		var record filevault.FileRecord
		var extraJSON []byte

		if err := rows.Scan(&record.ID, &record.FileIdentifier, &record.Owner, &record.Filename, &extraJSON, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("list all: scan: %w", err)
		}

		if err := json.Unmarshal(extraJSON, &record.Extra); err != nil {
			return nil, fmt.Errorf("list all: parse extra: %w", err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list all: rows: %w", err)
	}

	return records, nil
}

func marshalExtra(extra map[string]string) ([]byte, error) {
	if len(extra) == 0 {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("marshal extra: %w", err)
	}
	return data, nil
}

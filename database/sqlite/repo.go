// Package sqlite implements the repo interfaces using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sanketpal/filevault"
)

// isUniqueViolation reports whether the driver error is a UNIQUE
// constraint failure. modernc.org/sqlite surfaces these as plain errors,
// so the message text is the only signal.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// UserRepo persists credentials in a SQLite table.
type UserRepo struct {
	db        *sql.DB
	tableName string
}

// NewUserRepo creates a UserRepo over the given connection.
func NewUserRepo(db *sql.DB, tables filevault.Tables) (*UserRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}
	return &UserRepo{db: db, tableName: tables.Users}, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (filevault.User, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT username, password_hash, salt, created_at
		FROM %s
		WHERE username = ?`, r.tableName)

	var u filevault.User
	var createdAt string

	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&u.Username, &u.PasswordHash, &u.Salt, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return filevault.User{}, filevault.ErrNotFound
		}
		return filevault.User{}, fmt.Errorf("find by username: %w", err)
	}

	u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return filevault.User{}, fmt.Errorf("find by username: parse created_at: %w", err)
	}

	return u, nil
}

func (r *UserRepo) Create(ctx context.Context, user filevault.User) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (username, password_hash, salt, created_at)
		VALUES (?, ?, ?, ?)`, r.tableName)

	_, err := r.db.ExecContext(ctx, query, user.Username, user.PasswordHash, user.Salt, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user: %w", filevault.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// FileRepo persists file records in a SQLite table.
type FileRepo struct {
	db        *sql.DB
	tableName string
}

// NewFileRepo creates a FileRepo over the given connection.
func NewFileRepo(db *sql.DB, tables filevault.Tables) (*FileRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new file repo: %w", err)
	}
	return &FileRepo{db: db, tableName: tables.Files}, nil
}

func (r *FileRepo) Get(ctx context.Context, fileIdentifier string) (filevault.FileRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, file_identifier, owner, filename, extra, created_at
		FROM %s
		WHERE file_identifier = ?`, r.tableName)

	return r.scanRecord(r.db.QueryRowContext(ctx, query, fileIdentifier), "get")
}

func (r *FileRepo) Insert(ctx context.Context, record filevault.FileRecord) (filevault.FileRecord, error) {
	extraJSON, err := marshalExtra(record.Extra)
	if err != nil {
		return filevault.FileRecord{}, fmt.Errorf("insert: %w", err)
	}

	now := time.Now().UTC()
	newID := uuid.New()

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, file_identifier, owner, filename, extra, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, r.tableName)

	_, err = r.db.ExecContext(ctx, query,
		newID.String(), record.FileIdentifier, record.Owner, record.Filename,
		extraJSON, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return filevault.FileRecord{}, fmt.Errorf("insert: %w", filevault.ErrConflict)
		}
		return filevault.FileRecord{}, fmt.Errorf("insert: %w", err)
	}

	record.ID = newID
	record.CreatedAt = now
	return record, nil
}

func (r *FileRepo) Delete(ctx context.Context, fileIdentifier string) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %s WHERE file_identifier = ?`, r.tableName)

	result, err := r.db.ExecContext(ctx, query, fileIdentifier)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete: %w", filevault.ErrNotFound)
	}

	return nil
}

func (r *FileRepo) ListByOwner(ctx context.Context, owner string) ([]string, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT file_identifier
		FROM %s
		WHERE owner = ?
		ORDER BY created_at, file_identifier`, r.tableName)

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("list by owner: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, file_identifier, owner, filename, extra, created_at
		FROM %s
		ORDER BY created_at, file_identifier`, r.tableName)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []filevault.FileRecord{}
	for rows.Next() {
		record, scanErr := r.scanRecord(rows, "list all")
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list all: rows: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *FileRepo) scanRecord(row rowScanner, opName string) (filevault.FileRecord, error) {
	var record filevault.FileRecord
	var idStr, extraJSON, createdAt string

	err := row.Scan(&idStr, &record.FileIdentifier, &record.Owner, &record.Filename, &extraJSON, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return filevault.FileRecord{}, filevault.ErrNotFound
		}
		return filevault.FileRecord{}, fmt.Errorf("%s: %w", opName, err)
	}

	record.ID, err = uuid.Parse(idStr)
	if err != nil {
		return filevault.FileRecord{}, fmt.Errorf("%s: parse uuid: %w", opName, err)
	}

	if err := json.Unmarshal([]byte(extraJSON), &record.Extra); err != nil {
		return filevault.FileRecord{}, fmt.Errorf("%s: parse extra: %w", opName, err)
	}

	record.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return filevault.FileRecord{}, fmt.Errorf("%s: parse created_at: %w", opName, err)
	}

	return record, nil
}

func marshalExtra(extra map[string]string) (string, error) {
	if len(extra) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return "", fmt.Errorf("marshal extra: %w", err)
	}
	return string(data), nil
}

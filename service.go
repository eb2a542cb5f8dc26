package filevault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// UserRepo defines the interface for credential persistence.
// Implementations must handle concurrent access safely.
//
// All methods accept a context for cancellation and timeout control.
type UserRepo interface {
	// FindByUsername retrieves a user by username.
	//
	// Returns:
	//   - User: the credential record if found
	//   - error: ErrNotFound if the username doesn't exist, or other database errors
	FindByUsername(ctx context.Context, username string) (User, error)

	// Create inserts a new user. The insert must be atomic with respect to
	// a concurrent Create of the same username: at most one wins, the loser
	// observes ErrConflict via the backend's uniqueness constraint.
	Create(ctx context.Context, user User) error
}

// FileRepo defines the interface for file metadata persistence.
// File identifiers are globally unique across all owners; the backend's
// unique constraint on the identifier is the concurrency gate for
// duplicate uploads.
//
// All methods accept a context for cancellation and timeout control.
type FileRepo interface {
	// Get retrieves the record for a file identifier.
	//
	// Returns:
	//   - FileRecord: the record if found
	//   - error: ErrNotFound if the identifier doesn't exist, or other database errors
	Get(ctx context.Context, fileIdentifier string) (FileRecord, error)

	// Insert creates a new record and returns it with the assigned internal
	// id and creation timestamp. Returns ErrConflict when a record with the
	// same file identifier already exists; two concurrent inserts of the
	// same identifier must never both succeed.
	Insert(ctx context.Context, record FileRecord) (FileRecord, error)

	// Delete removes the record for a file identifier.
	// Returns ErrNotFound if no record exists.
	Delete(ctx context.Context, fileIdentifier string) error

	// ListByOwner returns the file identifiers owned by the given identity
	// in creation order. Returns an empty slice (not nil) when the owner
	// has no files.
	ListByOwner(ctx context.Context, owner string) ([]string, error)

	// ListAll returns every record. Used by consistency checks; can be
	// expensive for large stores.
	ListAll(ctx context.Context) ([]FileRecord, error)
}

// BlobStorage defines the interface for raw file bytes addressed by their
// derived filename on a flat, filesystem-like backend.
//
// All methods accept a context for cancellation and timeout control.
// Implementations should respect context cancellation during long-running
// operations like large uploads.
type BlobStorage interface {
	// Get opens a blob for reading. Returns ErrNotFound if the blob does
	// not exist. The caller is responsible for closing the returned
	// ReadSeekCloser.
	Get(ctx context.Context, filename string) (io.ReadSeekCloser, error)

	// Write stores content under the given filename, overwriting any
	// existing blob. Implementations should write atomically (temp file
	// then rename) and return the byte count and a content hash.
	Write(ctx context.Context, filename string, content io.Reader) (SaveResult, error)

	// Delete removes a blob. Returns ErrNotFound if the blob does not
	// exist. This only deletes the bytes, not the metadata record; callers
	// coordinate the two.
	Delete(ctx context.Context, filename string) error

	// List returns the names of all stored blobs. Used by consistency
	// checks; can be expensive for large volumes.
	List(ctx context.Context) ([]string, error)
}

// FileService orchestrates upload, download, delete, list, and metadata
// operations, enforcing ownership and keeping the metadata record and the
// stored blob consistent.
type FileService struct {
	files          FileRepo
	storage        BlobStorage
	cleanupTimeout time.Duration
}

// ServiceConfig holds configuration options for FileService.
type ServiceConfig struct {
	CleanupTimeout time.Duration // Timeout for compensating rollbacks (default: 30s)
}

// NewFileService creates a FileService over the given metadata repo and
// blob storage.
func NewFileService(files FileRepo, storage BlobStorage, cfg ServiceConfig) (*FileService, error) {
	if files == nil || storage == nil {
		return nil, errors.New("new file service: repo and storage are required")
	}
	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}
	return &FileService{
		files:          files,
		storage:        storage,
		cleanupTimeout: cleanupTimeout,
	}, nil
}

// Upload stores a new file owned by identity. The metadata record is
// inserted first so the repo's uniqueness constraint arbitrates concurrent
// uploads of the same identifier; the blob is written second. If the blob
// write fails the just-inserted record is deleted again (compensating
// rollback) and the original storage error is returned.
//
// Error types returned:
//   - ErrInvalidInput: missing or malformed file identifier, or nil content
//   - ErrConflict: a record with the same file identifier already exists
//   - context.Canceled or context.DeadlineExceeded: context was cancelled
//   - Wrapped storage errors: the blob write failed (record rolled back)
//
// The rollback uses a background context with the configured cleanup
// timeout so it completes even when the request context is already gone.
func (s *FileService) Upload(ctx context.Context, identity string, obj UploadObject, content io.Reader) (FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return FileRecord{}, fmt.Errorf("upload: %w", err)
	}

	if identity == "" {
		return FileRecord{}, fmt.Errorf("upload: %w: identity cannot be empty", ErrInvalidInput)
	}

	if !IsValidFileIdentifier(obj.FileIdentifier) {
		return FileRecord{}, fmt.Errorf("upload: %w: invalid file identifier", ErrInvalidInput)
	}

	if content == nil {
		return FileRecord{}, fmt.Errorf("upload %s: %w: no file content", obj.FileIdentifier, ErrInvalidInput)
	}

	if obj.Extension != "" && SafeExtension("f"+obj.Extension) != obj.Extension {
		return FileRecord{}, fmt.Errorf("upload %s: %w: invalid extension", obj.FileIdentifier, ErrInvalidInput)
	}

	record := FileRecord{
		FileIdentifier: obj.FileIdentifier,
		Owner:          identity,
		Filename:       DeriveFilename(obj.FileIdentifier, obj.Extension),
		Extra:          obj.Extra,
	}

	inserted, err := s.files.Insert(ctx, record)
	if err != nil {
		return FileRecord{}, fmt.Errorf("upload %s: %w", obj.FileIdentifier, err)
	}

	if _, writeErr := s.storage.Write(ctx, inserted.Filename, content); writeErr != nil {
		// Use a background context for the rollback since the request
		// context may already be cancelled.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
		defer cancel()

		if delErr := s.files.Delete(cleanupCtx, inserted.FileIdentifier); delErr != nil {
			slog.Error("upload rollback failed, metadata record may be orphaned",
				"file_identifier", inserted.FileIdentifier, "err", delErr)
		}
		return FileRecord{}, fmt.Errorf("upload %s: write blob: %w", obj.FileIdentifier, writeErr)
	}

	return inserted, nil
}

// Download returns the record and an open reader for the file's bytes.
// The ownership check runs before any data is touched: a record owned by
// another identity yields ErrForbidden, an absent record ErrNotFound.
// The caller must close the returned reader.
func (s *FileService) Download(ctx context.Context, identity, fileIdentifier string) (FileRecord, io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return FileRecord{}, nil, fmt.Errorf("download: %w", err)
	}

	record, err := s.authorize(ctx, identity, fileIdentifier)
	if err != nil {
		return FileRecord{}, nil, fmt.Errorf("download: %w", err)
	}

	content, err := s.storage.Get(ctx, record.Filename)
	if err != nil {
		return FileRecord{}, nil, fmt.Errorf("download %s: %w", fileIdentifier, err)
	}

	return record, content, nil
}

// Delete removes the file's blob and then its metadata record. If the blob
// is already gone the record is left untouched and ErrNotFound is
// returned; a crash between the two deletes can leave a record without a
// blob, which CheckConsistency surfaces.
func (s *FileService) Delete(ctx context.Context, identity, fileIdentifier string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	record, err := s.authorize(ctx, identity, fileIdentifier)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if err := s.storage.Delete(ctx, record.Filename); err != nil {
		if errors.Is(err, ErrNotFound) {
			slog.Warn("blob missing for existing record",
				"file_identifier", fileIdentifier, "filename", record.Filename)
			return fmt.Errorf("delete %s: %w", fileIdentifier, ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", fileIdentifier, err)
	}

	if err := s.files.Delete(ctx, fileIdentifier); err != nil {
		return fmt.Errorf("delete %s: %w", fileIdentifier, err)
	}

	return nil
}

// GetMetadata returns the record for a file identifier after the ownership
// check. Callers expose record.Metadata(), which omits the internal id.
func (s *FileService) GetMetadata(ctx context.Context, identity, fileIdentifier string) (FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return FileRecord{}, fmt.Errorf("get metadata: %w", err)
	}

	record, err := s.authorize(ctx, identity, fileIdentifier)
	if err != nil {
		return FileRecord{}, fmt.Errorf("get metadata: %w", err)
	}

	return record, nil
}

// ListOwned returns the file identifiers owned by identity, possibly empty.
func (s *FileService) ListOwned(ctx context.Context, identity string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list owned: %w", err)
	}

	ids, err := s.files.ListByOwner(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("list owned: %w", err)
	}

	return ids, nil
}

// CheckConsistency compares the metadata store against blob storage and
// reports records whose blob is missing and blobs with no record. It never
// repairs anything; the report is for operators.
func (s *FileService) CheckConsistency(ctx context.Context) (ConsistencyReport, error) {
	if err := ctx.Err(); err != nil {
		return ConsistencyReport{}, fmt.Errorf("check consistency: %w", err)
	}

	records, err := s.files.ListAll(ctx)
	if err != nil {
		return ConsistencyReport{}, fmt.Errorf("check consistency: %w", err)
	}

	blobs, err := s.storage.List(ctx)
	if err != nil {
		return ConsistencyReport{}, fmt.Errorf("check consistency: %w", err)
	}

	known := make(map[string]bool, len(blobs))
	for _, name := range blobs {
		known[name] = false
	}

	report := ConsistencyReport{
		MissingBlobs:  []string{},
		OrphanedBlobs: []string{},
	}

	for _, record := range records {
		if _, ok := known[record.Filename]; ok {
			known[record.Filename] = true
			continue
		}
		report.MissingBlobs = append(report.MissingBlobs, record.FileIdentifier)
	}

	for _, name := range blobs {
		if !known[name] {
			report.OrphanedBlobs = append(report.OrphanedBlobs, name)
		}
	}

	return report, nil
}

func (s *FileService) authorize(ctx context.Context, identity, fileIdentifier string) (FileRecord, error) {
	if fileIdentifier == "" {
		return FileRecord{}, fmt.Errorf("%w: file identifier cannot be empty", ErrInvalidInput)
	}

	record, err := s.files.Get(ctx, fileIdentifier)
	if err != nil {
		return FileRecord{}, err
	}

	if record.Owner != identity {
		return FileRecord{}, fmt.Errorf("%s: %w", fileIdentifier, ErrForbidden)
	}

	return record, nil
}

package filevault

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// User is a credential record. The username is immutable once created and
// the salt is bound 1:1 to the password hash.
type User struct {
	Username     string
	PasswordHash []byte
	Salt         []byte
	CreatedAt    time.Time
}

// FileRecord ties a caller-chosen file identifier to its owner and the
// derived blob filename. Extra holds arbitrary caller-supplied metadata
// fields captured at upload time.
type FileRecord struct {
	ID             uuid.UUID         `json:"-"`
	FileIdentifier string            `json:"file_identifier"`
	Owner          string            `json:"owner"`
	Filename       string            `json:"filename"`
	Extra          map[string]string `json:"-"`
	CreatedAt      time.Time         `json:"-"`
}

// Metadata returns the client-visible view of the record: every stored
// field except the internal storage-assigned id, with extra fields merged
// in. Reserved fields win over extra fields of the same name.
func (r FileRecord) Metadata() map[string]string {
	m := make(map[string]string, len(r.Extra)+3)
	for k, v := range r.Extra {
		m[k] = v
	}
	m["file_identifier"] = r.FileIdentifier
	m["owner"] = r.Owner
	m["filename"] = r.Filename
	return m
}

// UploadObject describes a pending upload. Extension must include the
// leading dot or be empty.
type UploadObject struct {
	FileIdentifier string
	Extension      string
	Extra          map[string]string
}

// SaveResult reports the outcome of a blob write.
type SaveResult struct {
	BytesWritten int64
	Etag         string
}

// ConsistencyReport lists divergence between the metadata store and blob
// storage found by FileService.CheckConsistency.
type ConsistencyReport struct {
	// MissingBlobs holds file identifiers whose record exists but whose
	// blob is gone.
	MissingBlobs []string `json:"missing_blobs"`
	// OrphanedBlobs holds stored filenames with no matching record.
	OrphanedBlobs []string `json:"orphaned_blobs"`
}

// Tables holds configurable table names for the persistence backends.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	Users string `mapstructure:"users"`
	Files string `mapstructure:"files"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Users == "" {
		return errors.New("validate tables: users table name cannot be empty")
	}

	if t.Files == "" {
		return errors.New("validate tables: files table name cannot be empty")
	}

	for _, name := range []string{t.Users, t.Files} {
		if !IsValidTableName(name) {
			return fmt.Errorf("validate tables: invalid table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", name)
		}
	}

	return nil
}

// Package filesystem provides the blob storage backend for filevault.
// Blobs live flat in a single root directory, writes are atomic via temp
// files, and each write produces a SHA256-based etag.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sanketpal/filevault"
)

// Store provides file system blob operations.
type Store struct {
	root *os.Root
}

// NewBlobStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewBlobStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Get opens a blob for reading. Returns filevault.ErrNotFound if the blob does not exist.
func (s *Store) Get(ctx context.Context, filename string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, filevault.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically stores content under filename using a temp file and
// rename, returning the byte count and SHA256-based etag. The operation
// respects context cancellation; partial writes are cleaned up.
func (s *Store) Write(ctx context.Context, filename string, content io.Reader) (filevault.SaveResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return filevault.SaveResult{}, ctxErr
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return filevault.SaveResult{}, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	bytesWritten, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return filevault.SaveResult{}, fmt.Errorf("could not copy blob contents: %w", err)
	}

	err = t.Sync()
	if err != nil {
		return filevault.SaveResult{}, fmt.Errorf("could not sync written blob: %w", err)
	}

	if renameErr := s.root.Rename(tmpFile, filename); renameErr != nil {
		return filevault.SaveResult{}, fmt.Errorf("failed to rename blob: %w", renameErr)
	}

	etag := hex.EncodeToString(h.Sum(nil))
	success = true

	return filevault.SaveResult{BytesWritten: bytesWritten, Etag: etag}, nil
}

// Delete removes a blob. Returns filevault.ErrNotFound if the blob does not exist.
func (s *Store) Delete(ctx context.Context, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.root.Remove(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return filevault.ErrNotFound
		}
		return fmt.Errorf("could not delete blob: %w", err)
	}
	return nil
}

// List returns the names of all stored blobs. Dot-prefixed entries are
// leftover temp files and are skipped. Intended for consistency checks.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}

	names := make([]string, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}

	return names, nil
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}

package filevault_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sanketpal/filevault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type SpyFileRepo struct {
	mock.Mock
}

func (s *SpyFileRepo) Get(ctx context.Context, fileIdentifier string) (filevault.FileRecord, error) {
	args := s.Called(ctx, fileIdentifier)
	return args.Get(0).(filevault.FileRecord), args.Error(1)
}

func (s *SpyFileRepo) Insert(ctx context.Context, record filevault.FileRecord) (filevault.FileRecord, error) {
	args := s.Called(ctx, record)
	return args.Get(0).(filevault.FileRecord), args.Error(1)
}

func (s *SpyFileRepo) Delete(ctx context.Context, fileIdentifier string) error {
	args := s.Called(ctx, fileIdentifier)
	return args.Error(0)
}

func (s *SpyFileRepo) ListByOwner(ctx context.Context, owner string) ([]string, error) {
	args := s.Called(ctx, owner)
	return args.Get(0).([]string), args.Error(1)
}

func (s *SpyFileRepo) ListAll(ctx context.Context) ([]filevault.FileRecord, error) {
	args := s.Called(ctx)
	return args.Get(0).([]filevault.FileRecord), args.Error(1)
}

type SpyBlobStorage struct {
	mock.Mock
}

func (s *SpyBlobStorage) Get(ctx context.Context, filename string) (io.ReadSeekCloser, error) {
	args := s.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadSeekCloser), args.Error(1)
}

func (s *SpyBlobStorage) Write(ctx context.Context, filename string, content io.Reader) (filevault.SaveResult, error) {
	args := s.Called(ctx, filename, content)
	return args.Get(0).(filevault.SaveResult), args.Error(1)
}

func (s *SpyBlobStorage) Delete(ctx context.Context, filename string) error {
	args := s.Called(ctx, filename)
	return args.Error(0)
}

func (s *SpyBlobStorage) List(ctx context.Context) ([]string, error) {
	args := s.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

type nopReadSeekCloser struct {
	*bytes.Reader
}

func (nopReadSeekCloser) Close() error { return nil }

func newFileService(t *testing.T) (*filevault.FileService, *SpyFileRepo, *SpyBlobStorage) {
	t.Helper()
	repo := new(SpyFileRepo)
	storage := new(SpyBlobStorage)
	s, err := filevault.NewFileService(repo, storage, filevault.ServiceConfig{})
	require.NoError(t, err, "new file service")
	return s, repo, storage
}

func TestNewFileService(t *testing.T) {
	t.Run("requires repo and storage", func(t *testing.T) {
		_, err := filevault.NewFileService(nil, new(SpyBlobStorage), filevault.ServiceConfig{})
		assert.Error(t, err)
		_, err = filevault.NewFileService(new(SpyFileRepo), nil, filevault.ServiceConfig{})
		assert.Error(t, err)
	})
}

func TestFileService_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		service, repo, storage := newFileService(t)
		content := strings.NewReader("hello")

		inserted := filevault.FileRecord{
			ID:             uuid.New(),
			FileIdentifier: "q3-report",
			Owner:          "alice",
			Filename:       "q3-report.pdf",
			Extra:          map[string]string{"quarter": "3"},
		}

		repo.On("Insert", ctx, mock.MatchedBy(func(r filevault.FileRecord) bool {
			return r.FileIdentifier == "q3-report" && r.Owner == "alice" && r.Filename == "q3-report.pdf"
		})).Return(inserted, nil)
		storage.On("Write", ctx, "q3-report.pdf", content).Return(filevault.SaveResult{BytesWritten: 5, Etag: "abc"}, nil)

		record, err := service.Upload(ctx, "alice", filevault.UploadObject{
			FileIdentifier: "q3-report",
			Extension:      ".pdf",
			Extra:          map[string]string{"quarter": "3"},
		}, content)

		assert.NoError(t, err)
		assert.Equal(t, inserted, record)
		repo.AssertExpectations(t)
		storage.AssertExpectations(t)
	})

	t.Run("invalid input", func(t *testing.T) {
		service, repo, storage := newFileService(t)

		_, err := service.Upload(ctx, "", filevault.UploadObject{FileIdentifier: "x"}, strings.NewReader("a"))
		assert.ErrorIs(t, err, filevault.ErrInvalidInput)

		_, err = service.Upload(ctx, "alice", filevault.UploadObject{FileIdentifier: "../evil"}, strings.NewReader("a"))
		assert.ErrorIs(t, err, filevault.ErrInvalidInput)

		_, err = service.Upload(ctx, "alice", filevault.UploadObject{FileIdentifier: "x"}, nil)
		assert.ErrorIs(t, err, filevault.ErrInvalidInput)

		_, err = service.Upload(ctx, "alice", filevault.UploadObject{FileIdentifier: "x", Extension: ".e/vil"}, strings.NewReader("a"))
		assert.ErrorIs(t, err, filevault.ErrInvalidInput)

		repo.AssertNotCalled(t, "Insert")
		storage.AssertNotCalled(t, "Write")
	})

	t.Run("duplicate identifier", func(t *testing.T) {
		service, repo, storage := newFileService(t)

		repo.On("Insert", ctx, mock.Anything).Return(filevault.FileRecord{}, filevault.ErrConflict)

		_, err := service.Upload(ctx, "alice", filevault.UploadObject{FileIdentifier: "taken"}, strings.NewReader("a"))
		assert.ErrorIs(t, err, filevault.ErrConflict)
		storage.AssertNotCalled(t, "Write")
	})

	t.Run("write failure rolls back the record", func(t *testing.T) {
		service, repo, storage := newFileService(t)

		inserted := filevault.FileRecord{
			ID:             uuid.New(),
			FileIdentifier: "doomed",
			Owner:          "alice",
			Filename:       "doomed.txt",
		}
		writeErr := errors.New("disk full")

		repo.On("Insert", ctx, mock.Anything).Return(inserted, nil)
		storage.On("Write", ctx, "doomed.txt", mock.Anything).Return(filevault.SaveResult{}, writeErr)
		// Rollback runs on a background context, not the request context.
		repo.On("Delete", mock.Anything, "doomed").Return(nil)

		_, err := service.Upload(ctx, "alice", filevault.UploadObject{FileIdentifier: "doomed", Extension: ".txt"}, strings.NewReader("a"))
		assert.ErrorIs(t, err, writeErr)
		repo.AssertCalled(t, "Delete", mock.Anything, "doomed")
	})

	t.Run("write failure with failing rollback still returns write error", func(t *testing.T) {
		service, repo, storage := newFileService(t)

		inserted := filevault.FileRecord{FileIdentifier: "doomed", Filename: "doomed"}
		writeErr := errors.New("disk full")

		repo.On("Insert", ctx, mock.Anything).Return(inserted, nil)
		storage.On("Write", ctx, "doomed", mock.Anything).Return(filevault.SaveResult{}, writeErr)
		repo.On("Delete", mock.Anything, "doomed").Return(errors.New("db down"))

		_, err := service.Upload(ctx, "alice", filevault.UploadObject{FileIdentifier: "doomed"}, strings.NewReader("a"))
		assert.ErrorIs(t, err, writeErr)
	})
}

func TestFileService_Download(t *testing.T) {
	ctx := context.Background()

	record := filevault.FileRecord{
		FileIdentifier: "q3-report",
		Owner:          "alice",
		Filename:       "q3-report.pdf",
	}

	t.Run("success", func(t *testing.T) {
		service, repo, storage := newFileService(t)

		content := nopReadSeekCloser{bytes.NewReader([]byte("hello"))}
		repo.On("Get", ctx, "q3-report").Return(record, nil)
		storage.On("Get", ctx, "q3-report.pdf").Return(content, nil)

		got, reader, err := service.Download(ctx, "alice", "q3-report")
		require.NoError(t, err)
		assert.Equal(t, record, got)

		data, err := io.ReadAll(reader)
		assert.NoError(t, err)
		assert.Equal(t, []byte("hello"), data)
		assert.NoError(t, reader.Close())
	})

	t.Run("not found", func(t *testing.T) {
		service, repo, storage := newFileService(t)

		repo.On("Get", ctx, "missing").Return(filevault.FileRecord{}, filevault.ErrNotFound)

		_, _, err := service.Download(ctx, "alice", "missing")
		assert.ErrorIs(t, err, filevault.ErrNotFound)
		storage.AssertNotCalled(t, "Get")
	})

	t.Run("not the owner", func(t *testing.T) {
		service, repo, storage := newFileService(t)

		repo.On("Get", ctx, "q3-report").Return(record, nil)

		_, _, err := service.Download(ctx, "mallory", "q3-report")
		assert.ErrorIs(t, err, filevault.ErrForbidden)
		storage.AssertNotCalled(t, "Get")
	})

	t.Run("blob missing for existing record", func(t *testing.T) {
		service, repo, storage := newFileService(t)

		repo.On("Get", ctx, "q3-report").Return(record, nil)
		storage.On("Get", ctx, "q3-report.pdf").Return(nil, filevault.ErrNotFound)

		_, _, err := service.Download(ctx, "alice", "q3-report")
		assert.ErrorIs(t, err, filevault.ErrNotFound)
	})

	t.Run("empty identifier", func(t *testing.T) {
		service, repo, _ := newFileService(t)

		_, _, err := service.Download(ctx, "alice", "")
		assert.ErrorIs(t, err, filevault.ErrInvalidInput)
		repo.AssertNotCalled(t, "Get")
	})
}

func TestFileService_Delete(t *testing.T) {
	ctx := context.Background()

	record := filevault.FileRecord{
		FileIdentifier: "q3-report",
		Owner:          "alice",
		Filename:       "q3-report.pdf",
	}

	t.Run("deletes blob before record", func(t *testing.T) {
		service, repo, storage := newFileService(t)

		repo.On("Get", ctx, "q3-report").Return(record, nil)
		storage.On("Delete", ctx, "q3-report.pdf").Return(nil)
		repo.On("Delete", ctx, "q3-report").Return(nil)

		err := service.Delete(ctx, "alice", "q3-report")
		assert.NoError(t, err)
		repo.AssertExpectations(t)
		storage.AssertExpectations(t)
	})

	t.Run("missing blob leaves the record", func(t *testing.T) {
		service, repo, storage := newFileService(t)

		repo.On("Get", ctx, "q3-report").Return(record, nil)
		storage.On("Delete", ctx, "q3-report.pdf").Return(filevault.ErrNotFound)

		err := service.Delete(ctx, "alice", "q3-report")
		assert.ErrorIs(t, err, filevault.ErrNotFound)
		repo.AssertNotCalled(t, "Delete")
	})

	t.Run("not the owner", func(t *testing.T) {
		service, repo, storage := newFileService(t)

		repo.On("Get", ctx, "q3-report").Return(record, nil)

		err := service.Delete(ctx, "mallory", "q3-report")
		assert.ErrorIs(t, err, filevault.ErrForbidden)
		storage.AssertNotCalled(t, "Delete")
		repo.AssertNotCalled(t, "Delete")
	})

	t.Run("storage error propagates", func(t *testing.T) {
		service, repo, storage := newFileService(t)

		ioErr := errors.New("io error")
		repo.On("Get", ctx, "q3-report").Return(record, nil)
		storage.On("Delete", ctx, "q3-report.pdf").Return(ioErr)

		err := service.Delete(ctx, "alice", "q3-report")
		assert.ErrorIs(t, err, ioErr)
		repo.AssertNotCalled(t, "Delete")
	})
}

func TestFileService_GetMetadata(t *testing.T) {
	ctx := context.Background()

	record := filevault.FileRecord{
		ID:             uuid.New(),
		FileIdentifier: "q3-report",
		Owner:          "alice",
		Filename:       "q3-report.pdf",
		Extra:          map[string]string{"quarter": "3"},
	}

	t.Run("success", func(t *testing.T) {
		service, repo, _ := newFileService(t)

		repo.On("Get", ctx, "q3-report").Return(record, nil)

		got, err := service.GetMetadata(ctx, "alice", "q3-report")
		require.NoError(t, err)

		metadata := got.Metadata()
		assert.Equal(t, "q3-report", metadata["file_identifier"])
		assert.Equal(t, "alice", metadata["owner"])
		assert.Equal(t, "q3-report.pdf", metadata["filename"])
		assert.Equal(t, "3", metadata["quarter"])
		assert.NotContains(t, metadata, "id")
	})

	t.Run("not the owner", func(t *testing.T) {
		service, repo, _ := newFileService(t)

		repo.On("Get", ctx, "q3-report").Return(record, nil)

		_, err := service.GetMetadata(ctx, "mallory", "q3-report")
		assert.ErrorIs(t, err, filevault.ErrForbidden)
	})
}

func TestFileRecord_Metadata(t *testing.T) {
	t.Run("reserved fields win over extra fields", func(t *testing.T) {
		record := filevault.FileRecord{
			FileIdentifier: "real-id",
			Owner:          "alice",
			Filename:       "real-id.txt",
			Extra:          map[string]string{"owner": "mallory", "note": "kept"},
		}

		metadata := record.Metadata()
		assert.Equal(t, "alice", metadata["owner"])
		assert.Equal(t, "kept", metadata["note"])
	})
}

func TestFileService_ListOwned(t *testing.T) {
	ctx := context.Background()

	t.Run("returns identifiers", func(t *testing.T) {
		service, repo, _ := newFileService(t)

		repo.On("ListByOwner", ctx, "alice").Return([]string{"a", "b"}, nil)

		ids, err := service.ListOwned(ctx, "alice")
		assert.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids)
	})

	t.Run("empty result is an empty slice", func(t *testing.T) {
		service, repo, _ := newFileService(t)

		repo.On("ListByOwner", ctx, "bob").Return([]string{}, nil)

		ids, err := service.ListOwned(ctx, "bob")
		assert.NoError(t, err)
		assert.NotNil(t, ids)
		assert.Empty(t, ids)
	})
}

func TestFileService_CheckConsistency(t *testing.T) {
	ctx := context.Background()

	t.Run("reports divergence both ways", func(t *testing.T) {
		service, repo, storage := newFileService(t)

		records := []filevault.FileRecord{
			{FileIdentifier: "ok", Filename: "ok.txt"},
			{FileIdentifier: "lost", Filename: "lost.txt"},
		}
		repo.On("ListAll", ctx).Return(records, nil)
		storage.On("List", ctx).Return([]string{"ok.txt", "stray.bin"}, nil)

		report, err := service.CheckConsistency(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"lost"}, report.MissingBlobs)
		assert.Equal(t, []string{"stray.bin"}, report.OrphanedBlobs)
	})

	t.Run("clean store", func(t *testing.T) {
		service, repo, storage := newFileService(t)

		repo.On("ListAll", ctx).Return([]filevault.FileRecord{}, nil)
		storage.On("List", ctx).Return([]string{}, nil)

		report, err := service.CheckConsistency(ctx)
		require.NoError(t, err)
		assert.Empty(t, report.MissingBlobs)
		assert.Empty(t, report.OrphanedBlobs)
	})
}

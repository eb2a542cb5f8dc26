package sqlite_test

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/sanketpal/filevault"
	"github.com/sanketpal/filevault/database/sqlite"
	"github.com/stretchr/testify/assert"
	_ "modernc.org/sqlite"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// getTestDatabase creates an in-memory SQLite database for testing
func getTestDatabase(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	assert.NoError(t, err, "failed to open sqlite database")

	cleanup := func() {
		if db != nil {
			_ = db.Close()
		}
	}

	return db, cleanup
}

// setupTestRepos creates repos with unique table names for test isolation
func setupTestRepos(t *testing.T) (*sqlite.UserRepo, *sqlite.FileRepo, func()) {
	t.Helper()

	db, dbCleanup := getTestDatabase(t)
	ctx := context.Background()

	suffix := getRandomString(t)
	tables := filevault.Tables{
		Users: fmt.Sprintf("users_%s", suffix),
		Files: fmt.Sprintf("files_%s", suffix),
	}

	err := sqlite.Migrate(ctx, db, tables)
	assert.NoError(t, err, "failed to migrate")

	users, err := sqlite.NewUserRepo(db, tables)
	assert.NoError(t, err, "failed to create user repo")

	files, err := sqlite.NewFileRepo(db, tables)
	assert.NoError(t, err, "failed to create file repo")

	cleanup := func() {
		_ = sqlite.DropTables(ctx, db, tables)
		dbCleanup()
	}

	return users, files, cleanup
}

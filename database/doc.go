// Package database provides a factory for the metadata backends.
//
// It selects between the sqlite and postgres implementations based on
// configuration, runs migrations, validates the schema, and hands back the
// credential and file repositories:
//
//	repos, cleanup, err := database.Connect(ctx, database.Config{
//	    Type:   "sqlite",
//	    DSN:    "filevault.db",
//	    Tables: filevault.Tables{Users: "filevault_users", Files: "filevault_files"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// The sqlite backend uses modernc.org/sqlite (no cgo); the postgres backend
// uses a pgx connection pool.
package database

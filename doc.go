// Package filevault provides a small authenticated object storage library:
// users register and log in to obtain a bearer token, then upload, download,
// list, and delete files that only they own.
//
// # Key Components
//
//   - AuthService: registration and login, combining UserRepo and TokenService
//   - TokenService: issues and verifies signed, time-limited identity tokens
//   - FileService: ownership-checked file operations keeping metadata and
//     blob storage consistent with a compensating rollback on upload failure
//   - UserRepo / FileRepo: interfaces for credential and metadata persistence
//     (PostgreSQL, SQLite)
//   - BlobStorage: interface for raw file bytes (filesystem)
//
// # Example Usage
//
//	tokens, err := filevault.NewTokenService(secret, time.Hour)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	auth := filevault.NewAuthService(users, tokens)
//	files, err := filevault.NewFileService(records, storage, filevault.ServiceConfig{})
//
//	// Register and log in
//	_ = auth.Register(ctx, "alice", "s3cret")
//	token, _ := auth.Login(ctx, "alice", "s3cret")
//
//	// Upload a file on behalf of a verified identity
//	identity, _ := tokens.Verify(token)
//	record, _ := files.Upload(ctx, identity, filevault.UploadObject{
//	    FileIdentifier: "report-2026",
//	    Extension:      ".pdf",
//	}, reader)
//
// See the http package for the REST API implementation and the
// database/sqlite and database/postgres packages for persistence backends.
package filevault

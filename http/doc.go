// Package http provides the HTTP API for filevault.
//
// This package implements a JSON API for authenticated file storage with
// bearer-token authentication.
//
// # Endpoints
//
// Public:
//
//   - POST /users/register — create an account
//   - POST /users/login — exchange credentials for a bearer token
//
// Bearer-token protected:
//
//   - GET    /data/get_identity — identity bound to the presented token
//   - POST   /data/file — multipart upload
//   - GET    /data/file/{file_identifier} — download
//   - DELETE /data/file/{file_identifier} — delete
//   - GET    /data/user_file — list owned file identifiers
//   - GET    /data/metadata/{file_identifier} — metadata for a file
//
// # Authentication
//
// Protected routes expect an "Authorization: Bearer <token>" header. The
// BearerAuth middleware verifies the token and places the bound identity in
// the request context:
//
//	router.Use(http.BearerAuth(tokens))
//
//	identity, ok := http.IdentityFromContext(r.Context())
//
// # Usage
//
// Create a handler with HandlerConfig:
//
//	handlerCfg := http.HandlerConfig{
//	    MaxUploadSize: 32 << 20,
//	}
//	handler := http.NewHandler(&handlerCfg, auth, files, tokens)
//	http.ListenAndServe(":8080", handler.Router())
//
// Errors are returned as JSON envelopes with stable error codes; see
// HandleError for the mapping from domain errors to status codes.
package http

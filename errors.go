package filevault

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when a valid identity accesses a file it does not own
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when a username or file identifier already exists
	ErrConflict = errors.New("already exists")

	// ErrTokenExpired is returned by TokenService.Verify for expired tokens
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned by TokenService.Verify for malformed tokens
	// or tokens whose signature does not match
	ErrTokenInvalid = errors.New("invalid token")
	// ErrNoSecret is returned when no signing secret is configured
	ErrNoSecret = errors.New("signing secret not configured")
)

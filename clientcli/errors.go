package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration validation.
var (
	ErrTokenRequired  = errors.New("not logged in: no token available")
	ErrConfigRequired = errors.New("config is required")
)

// Errors for input validation.
var (
	ErrNoIdentifiers   = errors.New("no file identifiers provided")
	ErrEmptyIdentifier = errors.New("file identifier is required")
)

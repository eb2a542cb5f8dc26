// Package config provides configuration loading and validation for filevault.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (FILEVAULT_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with FILEVAULT_ prefix:
//   - server.port → FILEVAULT_SERVER_PORT
//   - database.type → FILEVAULT_DATABASE_TYPE
//   - auth.secret → FILEVAULT_AUTH_SECRET
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port and max_upload_size
//   - Service: cleanup_timeout for compensating rollbacks
//   - Database: type, DSN, and table names
//   - Storage: blob storage path
//   - Auth: token signing secret (inline or from file) and token TTL
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Token TTL must be at least 1 second
//   - Log level must be debug, info, warn, or error
package config

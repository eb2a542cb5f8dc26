package filevault

import (
	"context"
	"errors"
	"fmt"
)

// AuthService handles registration and login, combining the credential
// store with the token service.
type AuthService struct {
	users  UserRepo
	tokens *TokenService
}

// NewAuthService creates an AuthService backed by the given credential
// store and token service.
func NewAuthService(users UserRepo, tokens *TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates a new user with a freshly salted password hash.
// Returns ErrInvalidInput for empty credentials and ErrConflict when the
// username is taken. The pre-check is advisory; the repo's
// uniqueness-enforcing insert decides concurrent registrations.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	if username == "" || password == "" {
		return fmt.Errorf("register: %w: username and password are required", ErrInvalidInput)
	}

	_, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return fmt.Errorf("register: %w", ErrConflict)
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("register: %w", err)
	}

	hash, salt, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	if err := s.users.Create(ctx, User{
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
	}); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	return nil
}

// Login verifies the credentials and issues a bearer token for the
// username. Unknown usernames and wrong passwords are indistinguishable:
// both return ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	if username == "" || password == "" {
		return "", fmt.Errorf("login: %w: username and password are required", ErrInvalidInput)
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("login: %w", ErrUnauthorized)
		}
		return "", fmt.Errorf("login: %w", err)
	}

	if !CheckPassword(password, user.PasswordHash, user.Salt) {
		return "", fmt.Errorf("login: %w", ErrUnauthorized)
	}

	token, err := s.tokens.Issue(username)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	return token, nil
}

package filevault

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the token lifetime used by Issue.
const DefaultTokenTTL = time.Hour

// TokenService issues and verifies signed, time-limited identity tokens.
// Tokens are stateless HS256 JWTs: validity is fully determined by the
// signature and the embedded expiry, so there is no revocation.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Identity string `json:"identity"`
}

// NewTokenService creates a TokenService signing with the given secret.
// A ttl <= 0 selects DefaultTokenTTL. Returns ErrNoSecret when the secret
// is empty.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("new token service: %w", ErrNoSecret)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a token carrying the identity, expiring after the configured ttl.
func (s *TokenService) Issue(identity string) (string, error) {
	return s.IssueWithTTL(identity, s.ttl)
}

// IssueWithTTL signs a token expiring at issue-time + ttl. A ttl of zero
// produces a token that is already expired at verification time.
func (s *TokenService) IssueWithTTL(identity string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("issue token: %w", ErrNoSecret)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Identity: identity,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return signed, nil
}

// Verify validates the signature and expiry of a token and returns the
// identity it carries. The outcome is exactly one of: the identity,
// ErrTokenExpired, ErrTokenInvalid, or ErrNoSecret.
func (s *TokenService) Verify(tokenString string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("verify token: %w", ErrNoSecret)
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	if !token.Valid || claims.Identity == "" {
		return "", ErrTokenInvalid
	}

	return claims.Identity, nil
}

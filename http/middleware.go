package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/sanketpal/filevault"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityFromContext returns the authenticated identity stored by
// BearerAuth, if any.
func IdentityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(identityKey).(string)
	return identity, ok
}

// TokenVerifier verifies a bearer token and returns the identity bound to it.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// BearerAuth creates middleware that enforces bearer-token authentication.
// On success the bound identity is placed in the request context.
func BearerAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Missing or malformed Authorization header")
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				HandleError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// identity is a convenience for handlers behind BearerAuth. A missing
// identity means the middleware was bypassed, which is a server bug.
func identity(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		HandleError(w, filevault.ErrUnauthorized)
	}
	return id, ok
}

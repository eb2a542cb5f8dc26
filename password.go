package filevault

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// argon2id parameters. Changing these invalidates stored hashes.
const (
	saltLength   = 16
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// HashPassword derives an argon2id hash of the password with a fresh random
// salt. The salt must be stored alongside the hash for verification.
func HashPassword(password string) (hash, salt []byte, err error) {
	salt = make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("generate salt: %w", err)
	}

	hash = argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return hash, salt, nil
}

// CheckPassword reports whether the password matches the stored hash and
// salt. The comparison is constant time.
func CheckPassword(password string, hash, salt []byte) bool {
	candidate := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}

package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the bcrypt cost factor
var BcryptCost = 12

// maxBcryptInput is the longest input bcrypt accepts, in bytes.
const maxBcryptInput = 72

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword verifies a password against a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password))
	return err == nil
}

// bcryptInput returns password unchanged when bcrypt can take it, otherwise
// the base64 SHA-256 digest of it. Multi-byte text reaches the limit long
// before 72 characters.
func bcryptInput(password string) []byte {
	if len(password) <= maxBcryptInput {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// IsHash reports whether stored looks like a bcrypt hash rather than a
// plaintext password written by an older store.
func IsHash(stored string) bool {
	if len(stored) != 60 {
		return false
	}
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(stored, prefix) {
			_, err := bcrypt.Cost([]byte(stored))
			return err == nil
		}
	}
	return false
}

package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// UnusablePasswordHash is stored for accounts that must never log in. It is
// not a valid bcrypt hash, so no password matches it.
const UnusablePasswordHash = "!"

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is used when a configured cost is outside bcrypt's range.
const DefaultBcryptCost = 10

var (
	ErrEmptyPassword = errors.New("password must not be empty")
	ErrEmptyHash     = errors.New("stored password hash is empty")
)

func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, DefaultBcryptCost)
}

func HashPasswordWithCost(password string, cost int) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrEmptyPassword
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(hashed), err
}

// VerifyPassword returns nil when candidate matches hash.
func VerifyPassword(hash, candidate string) error {
	if hash == "" {
		return ErrEmptyHash
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
}

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// DefaultCodeTTL is how long an issued verification code stays valid.
const DefaultCodeTTL = 5 * time.Minute

var codeSpan = big.NewInt(900000)

// GenerateCode returns a random six digit code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// CodeValid reports whether candidate matches the stored code and was checked
// no later than ttl after issuance. Wrong and expired codes are indistinguishable.
func CodeValid(stored string, sentAt *time.Time, candidate string, now time.Time, ttl time.Duration) bool {
	stored = strings.TrimSpace(stored)
	candidate = strings.TrimSpace(candidate)
	if stored == "" || candidate == "" || sentAt == nil {
		return false
	}
	match := subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
	fresh := now.Sub(*sentAt) <= ttl
	return match && fresh
}

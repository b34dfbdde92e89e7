package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// TokenFingerprint is the value persisted in place of a refresh token. It has
// a fixed 64 character width regardless of the claims carried by the token.
func TokenFingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

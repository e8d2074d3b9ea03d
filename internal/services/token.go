package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// AccessTokenBytes is the amount of random data behind every access token.
const AccessTokenBytes = 128

// TokenIssuer mints opaque access tokens.
type TokenIssuer interface {
	Issue() (string, error)
}

// RandomTokenIssuer returns hex encoded tokens read from crypto/rand.
type RandomTokenIssuer struct{}

// NewRandomTokenIssuer creates a new RandomTokenIssuer.
func NewRandomTokenIssuer() RandomTokenIssuer {
	return RandomTokenIssuer{}
}

// Issue returns 2*AccessTokenBytes lowercase hex characters.
func (RandomTokenIssuer) Issue() (string, error) {
	buf := make([]byte, AccessTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

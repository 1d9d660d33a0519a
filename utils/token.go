package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// approvalTokenBytes is the entropy behind each public approval token.
// 32 random bytes hex-encode to 64 characters, enough that tokens are
// unguessable capabilities.
const approvalTokenBytes = 32

// GenerateToken returns a new unguessable URL-safe token
func GenerateToken() (string, error) {
	buf := make([]byte, approvalTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

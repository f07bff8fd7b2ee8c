package invitations

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const tokenBytes = 32

// NewToken genera un token opaco no adivinable, de largo fijo
// (32 bytes aleatorios => 43 chars base64url, sin padding).
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("invitations: token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

package sec

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateOpaqueToken generates a URL-safe random token from byteLength random bytes.
func GenerateOpaqueToken(byteLength int) (string, error) {
	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

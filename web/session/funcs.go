package session

import "github.com/libresign/libresign/sec"

// GenerateWebSessionID returns an opaque 128-bit session id.
func GenerateWebSessionID() (string, error) {
	return sec.GenerateOpaqueToken(16)
}

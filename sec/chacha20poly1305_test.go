package sec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestXChaCha20Poly1305RoundTrip(t *testing.T) {
	c, err := NewXChaCha20Poly1305CipherBase64(testKey)
	require.NoError(t, err)

	encoded, err := c.EncryptEncode([]byte("session-id-12345"))
	require.NoError(t, err)
	assert.NotContains(t, encoded, "session-id-12345")

	plaintext, err := c.DecodeDecrypt(encoded)
	require.NoError(t, err)
	assert.Equal(t, "session-id-12345", string(plaintext))
}

func TestXChaCha20Poly1305NoncesDiffer(t *testing.T) {
	c, err := NewXChaCha20Poly1305CipherBase64(testKey)
	require.NoError(t, err)

	a, err := c.EncryptEncode([]byte("same plaintext"))
	require.NoError(t, err)
	b, err := c.EncryptEncode([]byte("same plaintext"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestXChaCha20Poly1305RejectsTampering(t *testing.T) {
	c, err := NewXChaCha20Poly1305CipherBase64(testKey)
	require.NoError(t, err)

	encoded, err := c.EncryptEncode([]byte("payload"))
	require.NoError(t, err)

	tampered := []byte(encoded)
	tampered[len(tampered)-1] ^= 1
	_, err = c.DecodeDecrypt(string(tampered))
	assert.Error(t, err)
}

func TestXChaCha20Poly1305RejectsShortCiphertext(t *testing.T) {
	c, err := NewXChaCha20Poly1305CipherBase64(testKey)
	require.NoError(t, err)

	_, err = c.DecodeDecrypt("c2hvcnQ")
	assert.Error(t, err)
}

func TestXChaCha20Poly1305RejectsBadKeySize(t *testing.T) {
	_, err := NewXChaCha20Poly1305CipherBase64([]byte("too short"))
	assert.Error(t, err)
}

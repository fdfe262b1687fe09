package sec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtSecret = []byte("super-secret-jwt-signing-key")

func TestPlatformAccessTokenRoundTrip(t *testing.T) {
	token, err := GeneratePlatformAccessToken("user-1", "me@example.com", jwtSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParsePlatformAccessToken(token, jwtSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "me@example.com", claims.Email)
}

func TestParsePlatformAccessTokenWrongSecret(t *testing.T) {
	token, err := GeneratePlatformAccessToken("user-1", "me@example.com", jwtSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParsePlatformAccessToken(token, []byte("a-different-secret"))
	assert.Error(t, err)
}

func TestParsePlatformAccessTokenExpired(t *testing.T) {
	token, err := GeneratePlatformAccessToken("user-1", "me@example.com", jwtSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParsePlatformAccessToken(token, jwtSecret)
	assert.Error(t, err)
}

func TestParsePlatformAccessTokenGarbage(t *testing.T) {
	_, err := ParsePlatformAccessToken("not.a.jwt", jwtSecret)
	assert.Error(t, err)
}

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "abc123", ExtractBearerToken("Bearer abc123"))
	assert.Equal(t, "", ExtractBearerToken("Basic abc123"))
	assert.Equal(t, "", ExtractBearerToken(""))
}

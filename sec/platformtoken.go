package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PlatformClaims are the claims this app reads from a platform-issued
// access token: sub is the platform user id.
type PlatformClaims struct {
	UserID string
	Email  string
}

// ParsePlatformAccessToken verifies an HS256 access token issued by the
// hosted platform and extracts the caller identity. The platform signs with
// a per-project symmetric secret, so no key lookup round trip is needed.
func ParsePlatformAccessToken(signedToken string, secret []byte) (*PlatformClaims, error) {
	parsed, err := jwt.Parse(signedToken, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	claimMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("failed to convert token claims to a map")
	}
	sub, _ := claimMap["sub"].(string)
	if sub == "" {
		return nil, errors.New("token has no subject")
	}
	email, _ := claimMap["email"].(string)
	return &PlatformClaims{UserID: sub, Email: email}, nil
}

// GeneratePlatformAccessToken signs an HS256 access token the way the
// platform does. Used by tests and local development against a stub platform.
func GeneratePlatformAccessToken(userID string, email string, secret []byte, expDuration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(expDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

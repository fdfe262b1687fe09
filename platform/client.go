// Package platform talks to the hosted backend's auth API. All identity
// state (credentials, password reset, email verification) lives on the
// platform side; this client only exchanges and refreshes sessions.
package platform

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/libresign/libresign/models"
)

var ErrAuthFailed = errors.New("platform: authentication failed")

type TokenSet struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

type Client struct {
	*http.Client // [Embedded]
	Conf         *Conf
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body any, bearer string) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(bodyBytes)
	}
	upstrReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Conf.Host+endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	upstrReq.Header.Set("apikey", c.Conf.AnonKey)
	upstrReq.Header.Set("Content-Type", "application/json")
	upstrReq.Header.Set("Accept", "application/json")
	if bearer == "" {
		bearer = c.Conf.AnonKey
	}
	upstrReq.Header.Set("Authorization", "Bearer "+bearer)
	return c.Do(upstrReq)
}

func decodeTokenSet(upstrRes *http.Response) (*TokenSet, error) {
	defer func() {
		if err := upstrRes.Body.Close(); err != nil {
			log.Printf("[WARN] %v", err)
		}
	}()
	if upstrRes.StatusCode >= 400 && upstrRes.StatusCode < 500 {
		return nil, ErrAuthFailed
	}
	if upstrRes.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP Status Code: %d", upstrRes.StatusCode)
	}
	var tokens TokenSet
	if err := json.UnmarshalRead(upstrRes.Body, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// ExchangeCode trades the auth callback code for a session.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenSet, error) {
	upstrRes, err := c.postJSON(ctx, c.Conf.TokenEndpoint+"?grant_type=pkce",
		map[string]string{"auth_code": code}, "")
	if err != nil {
		return nil, err
	}
	return decodeTokenSet(upstrRes)
}

// SignInWithPassword authenticates email/password credentials.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*TokenSet, error) {
	upstrRes, err := c.postJSON(ctx, c.Conf.TokenEndpoint+"?grant_type=password",
		map[string]string{"email": email, "password": password}, "")
	if err != nil {
		return nil, err
	}
	return decodeTokenSet(upstrRes)
}

// SignUp registers a new account. Depending on platform settings the
// response may already carry a session.
func (c *Client) SignUp(ctx context.Context, email, password string) (*TokenSet, error) {
	upstrRes, err := c.postJSON(ctx, c.Conf.SignupEndpoint,
		map[string]string{"email": email, "password": password}, "")
	if err != nil {
		return nil, err
	}
	return decodeTokenSet(upstrRes)
}

// RefreshSession reissues an access token from a refresh token.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*TokenSet, error) {
	upstrRes, err := c.postJSON(ctx, c.Conf.TokenEndpoint+"?grant_type=refresh_token",
		map[string]string{"refresh_token": refreshToken}, "")
	if err != nil {
		return nil, err
	}
	return decodeTokenSet(upstrRes)
}

// SignOut revokes the session on the platform side. A failure here is not
// fatal; the local web session is destroyed regardless.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	upstrRes, err := c.postJSON(ctx, c.Conf.LogoutEndpoint, nil, accessToken)
	if err != nil {
		return err
	}
	defer func() {
		if err := upstrRes.Body.Close(); err != nil {
			log.Printf("[WARN] %v", err)
		}
	}()
	if upstrRes.StatusCode >= 400 {
		return fmt.Errorf("HTTP Status Code: %d", upstrRes.StatusCode)
	}
	return nil
}

// GetUser fetches the identity behind an access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*models.User, error) {
	upstrReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Conf.Host+c.Conf.UserEndpoint, nil)
	if err != nil {
		return nil, err
	}
	upstrReq.Header.Set("apikey", c.Conf.AnonKey)
	upstrReq.Header.Set("Authorization", "Bearer "+accessToken)
	upstrReq.Header.Set("Accept", "application/json")
	upstrRes, err := c.Do(upstrReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := upstrRes.Body.Close(); err != nil {
			log.Printf("[WARN] %v", err)
		}
	}()
	if upstrRes.StatusCode == http.StatusUnauthorized || upstrRes.StatusCode == http.StatusForbidden {
		return nil, ErrAuthFailed
	}
	if upstrRes.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP Status Code: %d", upstrRes.StatusCode)
	}
	var user models.User
	if err := json.UnmarshalRead(upstrRes.Body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

package session

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/libresign/libresign/db/kvdb"
	"github.com/libresign/libresign/models"
	"github.com/libresign/libresign/sec"
	"github.com/libresign/libresign/web/session/login"
)

const CookieName = "__Host-wsession"

// Hash fields of a web session key in the KVDB.
const (
	fieldUserID       = "uid"
	fieldEmail        = "email"
	fieldAccessToken  = "access_token"
	fieldRefreshToken = "refresh_token"
)

type Manager struct {
	Conf              Conf
	Cipher            *sec.XChaCha20Poly1305Cipher
	AppName           string // for session key, etc.
	BackendKVDBClient kvdb.Client
}

func (m *Manager) WebSessionIDToKVDBKey(sessionID string) string {
	return m.AppName + "_wsession:" + sessionID
}

// IssueWebSession stores the platform tokens under a fresh session id and
// sets the session cookie. Returns the new session id.
func (m *Manager) IssueWebSession(ctx context.Context, w http.ResponseWriter, info login.WebLoginSessionInfo) (string, error) {
	webSessionId, err := GenerateWebSessionID()
	if err != nil {
		return "", err
	}
	key := m.WebSessionIDToKVDBKey(webSessionId)
	err = m.BackendKVDBClient.SetFields(ctx, key, map[string]any{
		fieldUserID:       info.UserIDStr,
		fieldEmail:        info.Email,
		fieldAccessToken:  info.AccessToken,
		fieldRefreshToken: info.RefreshToken,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store web session. %v", err)
	}
	if _, err = m.BackendKVDBClient.Expire(ctx, key, time.Duration(m.Conf.ExpireSliding)*time.Second); err != nil {
		return "", fmt.Errorf("failed to set web session expiry. %v", err)
	}
	if err = m.SetWebSessionCookie(w, webSessionId); err != nil {
		return "", err
	}
	return webSessionId, nil
}

// ReadWebSession resolves the cookie to the stored session. Found sessions
// get their sliding expiry refreshed. Returns nil, "" when there is no
// usable session; a reason string distinguishes broken state from absence.
func (m *Manager) ReadWebSession(ctx context.Context, r *http.Request) (*login.WebLoginSessionInfo, string) {
	webSessionCookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, ""
	}
	webSessionId, err := m.Cipher.DecodeDecrypt(webSessionCookie.Value) // []byte
	if err != nil {
		return nil, "bad_cookie"
	}
	key := m.WebSessionIDToKVDBKey(string(webSessionId))
	fields, err := m.BackendKVDBClient.GetAllFields(ctx, key)
	if err != nil {
		return nil, "session_error"
	}
	if len(fields) == 0 {
		return nil, "" // expired or never existed
	}
	// sliding expiry
	if _, err = m.BackendKVDBClient.Expire(ctx, key, time.Duration(m.Conf.ExpireSliding)*time.Second); err != nil {
		return nil, "session_error"
	}
	return &login.WebLoginSessionInfo{
		AccessToken:  fields[fieldAccessToken],
		RefreshToken: fields[fieldRefreshToken],
		UserIDStr:    fields[fieldUserID],
		Email:        fields[fieldEmail],
		SessionID:    string(webSessionId),
		Key:          key,
	}, ""
}

// RefreshWebSessionCookie rewrites the session cookie after a successful
// read so the browser's lifetime window slides together with the store's.
func (m *Manager) RefreshWebSessionCookie(w http.ResponseWriter, info *login.WebLoginSessionInfo) {
	if err := m.SetWebSessionCookie(w, info.SessionID); err != nil {
		log.Printf("[WARN] web session cookie refresh failed: %v", err)
	}
}

// UpdateWebSessionTokens overwrites the stored platform tokens after a refresh.
func (m *Manager) UpdateWebSessionTokens(ctx context.Context, key, accessToken, refreshToken string) error {
	return m.BackendKVDBClient.SetFields(ctx, key, map[string]any{
		fieldAccessToken:  accessToken,
		fieldRefreshToken: refreshToken,
	})
}

// DestroyWebSession removes the session record and the cookie.
func (m *Manager) DestroyWebSession(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if webSessionCookie, err := r.Cookie(CookieName); err == nil {
		if webSessionId, decErr := m.Cipher.DecodeDecrypt(webSessionCookie.Value); decErr == nil {
			_, _ = m.BackendKVDBClient.Delete(ctx, m.WebSessionIDToKVDBKey(string(webSessionId)))
		}
	}
	m.RemoveWebSessionCookie(w)
}

func (m *Manager) UserFromSessionInfo(info *login.WebLoginSessionInfo) *models.User {
	return &models.User{ID: info.UserIDStr, Email: info.Email}
}

func (m *Manager) FindWebSessionInKVDB(ctx context.Context, sessionID string) (bool, error) {
	return m.BackendKVDBClient.Exists(ctx, m.WebSessionIDToKVDBKey(sessionID))
}

func (m *Manager) CheckWebSessionFromCookie(ctx context.Context, r *http.Request) bool {
	info, _ := m.ReadWebSession(ctx, r)
	return info != nil
}

func (m *Manager) SetWebSessionCookie(w http.ResponseWriter, webSessionId string) error {
	encWebSessionId, err := m.Cipher.EncryptEncode([]byte(webSessionId))
	if err != nil {
		return fmt.Errorf("failed to encrypt web login session id. %v", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:  CookieName,
		Value: encWebSessionId,
		Path:  "/", // Subpaths will get this cookie.
		// Domain: // Cannot be set with `__Host-`
		HttpOnly: true, // JS cannot read it
		Secure:   true, // only sent over HTTPS
		MaxAge:   m.Conf.ExpireHardcap,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) RemoveWebSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Path:     "/",
		MaxAge:   -1, // Delete
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

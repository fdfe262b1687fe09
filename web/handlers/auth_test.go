package handlers

import (
	"encoding/json/v2"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libresign/libresign/db/kvdb/kvdbtest"
	"github.com/libresign/libresign/platform"
	"github.com/libresign/libresign/sec"
	"github.com/libresign/libresign/web/session"
)

func TestSafeNextPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "/dashboard"},
		{"/documents/abc/edit", "/documents/abc/edit"},
		{"/signatures", "/signatures"},
		{"https://evil.example.com/", "/dashboard"},
		{"//evil.example.com/", "/dashboard"},
		{"dashboard", "/dashboard"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, safeNextPath(c.in), "input %q", c.in)
	}
}

const platformTokenJSON = `{
	"access_token": "at-1",
	"token_type": "bearer",
	"expires_in": 3600,
	"refresh_token": "rt-1",
	"user": {"id": "user-1", "email": "me@example.com"}
}`

func newAuthHandlers(t *testing.T, platformHandler http.HandlerFunc) (*Handlers, *kvdbtest.Fake) {
	t.Helper()
	srv := httptest.NewServer(platformHandler)
	t.Cleanup(srv.Close)

	pconf := &platform.Conf{Host: srv.URL, AnonKey: "anon-key"}
	pconf.ApplyDefaults()

	cipher, err := sec.NewXChaCha20Poly1305CipherBase64([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	kv := kvdbtest.New()
	return &Handlers{
		AppName: "testapp",
		Sessions: &session.Manager{
			Conf:              session.Conf{ExpireSliding: 3600, ExpireHardcap: 604800, LoginPath: "/login"},
			Cipher:            cipher,
			AppName:           "testapp",
			BackendKVDBClient: kv,
		},
		Platform: &platform.Client{Client: &http.Client{}, Conf: pconf},
	}, kv
}

func TestAPILogin(t *testing.T) {
	h, _ := newAuthHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, platformTokenJSON)
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"me@example.com","password":"hunter2"}`))
	h.APILogin(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "/dashboard", body["redirect"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
}

func TestAPILoginFetchesUserWhenTokenResponseOmitsIt(t *testing.T) {
	userFetches := 0
	h, kv := newAuthHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/user") {
			userFetches++
			assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
			fmt.Fprint(w, `{"id": "user-1", "email": "me@example.com"}`)
			return
		}
		fmt.Fprint(w, `{"access_token": "at-1", "refresh_token": "rt-1"}`)
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"me@example.com","password":"hunter2"}`))
	h.APILogin(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, userFetches)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	sessionID, err := h.Sessions.Cipher.DecodeDecrypt(cookies[0].Value)
	require.NoError(t, err)
	fields, err := kv.GetAllFields(r.Context(), h.Sessions.WebSessionIDToKVDBKey(string(sessionID)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", fields["uid"])
	assert.Equal(t, "me@example.com", fields["email"])
}

func TestAPILoginInvalidCredentials(t *testing.T) {
	h, _ := newAuthHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"me@example.com","password":"wrong"}`))
	h.APILogin(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestAPILoginPlatformDown(t *testing.T) {
	h, _ := newAuthHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"me@example.com","password":"hunter2"}`))
	h.APILogin(w, r)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAPILoginMissingFields(t *testing.T) {
	h, _ := newAuthHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("platform must not be called for incomplete credentials")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"me@example.com"}`))
	h.APILogin(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPISignupWithEmailConfirmation(t *testing.T) {
	h, _ := newAuthHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"user": {"id": "user-2", "email": "new@example.com"}}`)
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"email":"new@example.com","password":"hunter2"}`))
	h.APISignup(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "/login", body["redirect"])
	assert.Equal(t, "confirm_email", body["notice"])
	assert.Empty(t, w.Result().Cookies(), "no session before the email is confirmed")
}

func TestAPISignupImmediateSession(t *testing.T) {
	h, _ := newAuthHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, platformTokenJSON)
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"email":"me@example.com","password":"hunter2"}`))
	h.APISignup(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "/dashboard", body["redirect"])
	assert.Len(t, w.Result().Cookies(), 1)
}

func TestAuthCallback(t *testing.T) {
	var gotQuery string
	h, _ := newAuthHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, platformTokenJSON)
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-123&next=/documents/abc", nil)
	h.AuthCallback(w, r)

	assert.Equal(t, "grant_type=pkce", gotQuery)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/documents/abc", w.Header().Get("Location"))
	assert.Len(t, w.Result().Cookies(), 1)
}

func TestAuthCallbackWithoutCode(t *testing.T) {
	h, _ := newAuthHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("platform must not be called without a code")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
	h.AuthCallback(w, r)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestAuthCallbackExchangeFailure(t *testing.T) {
	h, _ := newAuthHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/auth/callback?code=stale", nil)
	h.AuthCallback(w, r)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?error=auth_error", w.Header().Get("Location"))
}

func TestAuthCallbackRejectsOffsiteNext(t *testing.T) {
	h, _ := newAuthHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, platformTokenJSON)
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-123&next=//evil.example.com/", nil)
	h.AuthCallback(w, r)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestLogoutDestroysSession(t *testing.T) {
	signOuts := 0
	h, kv := newAuthHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/logout") {
			signOuts++
			w.WriteHeader(http.StatusNoContent)
			return
		}
		fmt.Fprint(w, platformTokenJSON)
	})

	// establish a session first
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"me@example.com","password":"hunter2"}`))
	h.APILogin(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := w.Result().Cookies()[0]

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.AddCookie(cookie)
	h.Logout(w, r)

	assert.Equal(t, 1, signOuts)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	// the session record is gone
	sessionID, err := h.Sessions.Cipher.DecodeDecrypt(cookie.Value)
	require.NoError(t, err)
	exists, err := kv.Exists(r.Context(), h.Sessions.WebSessionIDToKVDBKey(string(sessionID)))
	require.NoError(t, err)
	assert.False(t, exists)
}

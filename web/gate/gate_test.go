package gate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libresign/libresign/db/kvdb/kvdbtest"
	"github.com/libresign/libresign/platform"
	"github.com/libresign/libresign/sec"
	"github.com/libresign/libresign/web/session"
	"github.com/libresign/libresign/web/session/login"
)

func newTestSessions(t *testing.T) *session.Manager {
	t.Helper()
	cipher, err := sec.NewXChaCha20Poly1305CipherBase64([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return &session.Manager{
		Conf: session.Conf{
			ExpireSliding: 3600,
			ExpireHardcap: 604800,
			LoginPath:     "/login",
		},
		Cipher:            cipher,
		AppName:           "testapp",
		BackendKVDBClient: kvdbtest.New(),
	}
}

func loginCookie(t *testing.T, m *session.Manager) *http.Cookie {
	return loginCookieWithTokens(t, m, "at-1", "rt-1")
}

func loginCookieWithTokens(t *testing.T, m *session.Manager, accessToken, refreshToken string) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	_, err := m.IssueWebSession(context.Background(), w, login.WebLoginSessionInfo{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserIDStr:    "user-1",
		Email:        "me@example.com",
	})
	require.NoError(t, err)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

type captureHandler struct {
	called bool
	userID string
}

func (h *captureHandler) ServeHTTP(_ http.ResponseWriter, r *http.Request) {
	h.called = true
	if user, ok := session.UserFromContext(r.Context()); ok {
		h.userID = user.ID
	}
}

func TestGateRedirectsAnonymousToLogin(t *testing.T) {
	g := &Gate{Sessions: newTestSessions(t)}
	inner := &captureHandler{}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/documents/abc/edit", nil)
	g.Wrap(inner).ServeHTTP(w, r)

	assert.False(t, inner.called)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?from=%2Fdocuments%2Fabc%2Fedit", w.Header().Get("Location"))
}

func TestGateLetsAnonymousThroughPublicPaths(t *testing.T) {
	g := &Gate{Sessions: newTestSessions(t)}
	for _, path := range []string{"/", "/login", "/signup", "/static/app.css", "/api/auth/login", "/auth/callback"} {
		inner := &captureHandler{}
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, path, nil)
		g.Wrap(inner).ServeHTTP(w, r)
		assert.True(t, inner.called, "path %s must pass the gate", path)
	}
}

func TestGateAttachesUser(t *testing.T) {
	sessions := newTestSessions(t)
	g := &Gate{Sessions: sessions}
	inner := &captureHandler{}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(loginCookie(t, sessions))
	g.Wrap(inner).ServeHTTP(w, r)

	assert.True(t, inner.called)
	assert.Equal(t, "user-1", inner.userID)
}

func TestGateBouncesAuthenticatedOffLoginPages(t *testing.T) {
	sessions := newTestSessions(t)
	g := &Gate{Sessions: sessions}
	cookie := loginCookie(t, sessions)

	for _, path := range []string{"/login", "/signup"} {
		inner := &captureHandler{}
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, path, nil)
		r.AddCookie(cookie)
		g.Wrap(inner).ServeHTTP(w, r)

		assert.False(t, inner.called, "path %s", path)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/dashboard", w.Header().Get("Location"))
	}
}

func TestGateRewritesRefreshedCookieOnAllowedRequests(t *testing.T) {
	sessions := newTestSessions(t)
	g := &Gate{Sessions: sessions}
	inner := &captureHandler{}
	cookie := loginCookie(t, sessions)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(cookie)
	g.Wrap(inner).ServeHTTP(w, r)

	require.True(t, inner.called)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1, "gate must rewrite the session cookie on the response")
	refreshed := cookies[0]
	assert.Equal(t, session.CookieName, refreshed.Name)
	assert.Equal(t, 604800, refreshed.MaxAge)

	// the rewritten cookie resolves to the same session
	sessionID, err := sessions.Cipher.DecodeDecrypt(refreshed.Value)
	require.NoError(t, err)
	original, err := sessions.Cipher.DecodeDecrypt(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, string(original), string(sessionID))
}

func TestGateRefreshesExpiredAccessToken(t *testing.T) {
	jwtSecret := []byte("per-project-signing-secret")
	refreshCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		refreshCalls++
		fmt.Fprint(w, `{"access_token": "at-2", "refresh_token": "rt-2", "user": {"id": "user-1", "email": "me@example.com"}}`)
	}))
	t.Cleanup(srv.Close)

	pconf := &platform.Conf{Host: srv.URL, AnonKey: "anon-key"}
	pconf.ApplyDefaults()
	sessions := newTestSessions(t)
	g := &Gate{
		Sessions:  sessions,
		Platform:  &platform.Client{Client: &http.Client{}, Conf: pconf},
		JWTSecret: jwtSecret,
	}

	expired, err := sec.GeneratePlatformAccessToken("user-1", "me@example.com", jwtSecret, -time.Minute)
	require.NoError(t, err)
	cookie := loginCookieWithTokens(t, sessions, expired, "rt-1")

	inner := &captureHandler{}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(cookie)
	g.Wrap(inner).ServeHTTP(w, r)

	require.True(t, inner.called)
	assert.Equal(t, 1, refreshCalls)

	// the stored tokens were swapped for the fresh pair
	sessionID, err := sessions.Cipher.DecodeDecrypt(cookie.Value)
	require.NoError(t, err)
	kv := sessions.BackendKVDBClient.(*kvdbtest.Fake)
	fields, err := kv.GetAllFields(context.Background(), sessions.WebSessionIDToKVDBKey(string(sessionID)))
	require.NoError(t, err)
	assert.Equal(t, "at-2", fields["access_token"])
	assert.Equal(t, "rt-2", fields["refresh_token"])
}

func TestGateSkipsRefreshForValidAccessToken(t *testing.T) {
	jwtSecret := []byte("per-project-signing-secret")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no refresh call expected for a valid access token")
	}))
	t.Cleanup(srv.Close)

	pconf := &platform.Conf{Host: srv.URL, AnonKey: "anon-key"}
	pconf.ApplyDefaults()
	sessions := newTestSessions(t)
	g := &Gate{
		Sessions:  sessions,
		Platform:  &platform.Client{Client: &http.Client{}, Conf: pconf},
		JWTSecret: jwtSecret,
	}

	valid, err := sec.GeneratePlatformAccessToken("user-1", "me@example.com", jwtSecret, time.Hour)
	require.NoError(t, err)
	cookie := loginCookieWithTokens(t, sessions, valid, "rt-1")

	inner := &captureHandler{}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(cookie)
	g.Wrap(inner).ServeHTTP(w, r)

	assert.True(t, inner.called)
	assert.Equal(t, "user-1", inner.userID)
}

func TestGateRedirectsBrokenSessionWithReason(t *testing.T) {
	sessions := newTestSessions(t)
	g := &Gate{Sessions: sessions}
	inner := &captureHandler{}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(&http.Cookie{Name: session.CookieName, Value: "Z2FyYmFnZS1jb29raWUtdmFsdWU"})
	g.Wrap(inner).ServeHTTP(w, r)

	assert.False(t, inner.called)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?error=bad_cookie", w.Header().Get("Location"))
}

func TestLoaderAttachesUserWhenPresent(t *testing.T) {
	sessions := newTestSessions(t)
	l := &Loader{Sessions: sessions}
	inner := &captureHandler{}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	r.AddCookie(loginCookie(t, sessions))
	l.Wrap(inner).ServeHTTP(w, r)

	assert.True(t, inner.called)
	assert.Equal(t, "user-1", inner.userID)
}

func TestLoaderPassesAnonymousThrough(t *testing.T) {
	l := &Loader{Sessions: newTestSessions(t)}
	inner := &captureHandler{}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	l.Wrap(inner).ServeHTTP(w, r)

	assert.True(t, inner.called)
	assert.Empty(t, inner.userID)
}

func TestLoaderResolvesBearerToken(t *testing.T) {
	jwtSecret := []byte("per-project-signing-secret")
	l := &Loader{Sessions: newTestSessions(t), JWTSecret: jwtSecret}
	inner := &captureHandler{}

	token, err := sec.GeneratePlatformAccessToken("user-9", "api@example.com", jwtSecret, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	l.Wrap(inner).ServeHTTP(w, r)

	assert.True(t, inner.called)
	assert.Equal(t, "user-9", inner.userID)
}

func TestLoaderIgnoresForgedBearerToken(t *testing.T) {
	l := &Loader{Sessions: newTestSessions(t), JWTSecret: []byte("per-project-signing-secret")}
	inner := &captureHandler{}

	forged, err := sec.GeneratePlatformAccessToken("user-9", "api@example.com", []byte("a-different-secret"), time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	r.Header.Set("Authorization", "Bearer "+forged)
	l.Wrap(inner).ServeHTTP(w, r)

	assert.True(t, inner.called)
	assert.Empty(t, inner.userID, "a token signed with the wrong secret never authenticates")
}

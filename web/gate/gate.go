// Package gate guards page routes behind a web session and attaches the
// resolved user to the request context for everything else.
package gate

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/libresign/libresign/models"
	"github.com/libresign/libresign/platform"
	"github.com/libresign/libresign/responses"
	"github.com/libresign/libresign/routing"
	"github.com/libresign/libresign/sec"
	"github.com/libresign/libresign/web/session"
	"github.com/libresign/libresign/web/session/login"
)

// Public paths pass the gate without a session.
var publicPrefixes = []string{
	"/static/",
	"/api/",
	"/auth/",
	"/favicon.ico",
}

var publicExact = map[string]struct{}{
	"/":       {},
	"/login":  {},
	"/signup": {},
}

func isPublicPath(path string) bool {
	if _, ok := publicExact[path]; ok {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

type Gate struct {
	Sessions  *session.Manager
	Platform  *platform.Client
	JWTSecret []byte
}

// Wrap enforces authentication on page routes. Anonymous requests to
// protected paths are redirected to the login page carrying the original
// path in `from`. A broken session state redirects with an error code
// instead so the login page can explain itself.
// Authenticated visits to /login and /signup bounce to the dashboard.
// Every successful session read rewrites the refreshed cookie onto the
// response so the browser expiry slides with the store's.
func (g *Gate) Wrap(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		info, reason := g.Sessions.ReadWebSession(ctx, r)
		if info != nil {
			g.Sessions.RefreshWebSessionCookie(w, info)
			if r.URL.Path == "/login" || r.URL.Path == "/signup" {
				responses.Redirect302(w, r, "/dashboard")
				return
			}
			g.freshenTokens(ctx, info)
			ctx = session.WithUser(ctx, g.Sessions.UserFromSessionInfo(info))
			ctx = session.WithWebSessionId(ctx, info.Key)
			inner.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		if isPublicPath(r.URL.Path) {
			inner.ServeHTTP(w, r)
			return
		}
		if reason != "" {
			responses.RedirectWithQuery(w, r, g.Sessions.Conf.LoginPath, map[string]string{"error": reason})
			return
		}
		// relative path only, never a full URL, to keep redirects on-site
		responses.RedirectWithQuery(w, r, g.Sessions.Conf.LoginPath, map[string]string{"from": r.URL.RequestURI()})
	})
}

// freshenTokens swaps an expired access token for a fresh pair so handlers
// never hand the platform a stale credential. A failed refresh leaves the
// session as-is; the next platform call surfaces the problem itself.
func (g *Gate) freshenTokens(ctx context.Context, info *login.WebLoginSessionInfo) {
	if g.Platform == nil || len(g.JWTSecret) == 0 || info.RefreshToken == "" {
		return
	}
	if _, err := sec.ParsePlatformAccessToken(info.AccessToken, g.JWTSecret); err == nil {
		return
	}
	tokens, err := g.Platform.RefreshSession(ctx, info.RefreshToken)
	if err != nil {
		log.Printf("[WARN] platform session refresh failed: %v", err)
		return
	}
	if err = g.Sessions.UpdateWebSessionTokens(ctx, info.Key, tokens.AccessToken, tokens.RefreshToken); err != nil {
		log.Printf("[WARN] refreshed platform tokens not stored: %v", err)
		return
	}
	info.AccessToken = tokens.AccessToken
	info.RefreshToken = tokens.RefreshToken
}

var _ routing.HandlerWrapper = (*Gate)(nil)

type Loader struct {
	Sessions  *session.Manager
	JWTSecret []byte
}

// Wrap attaches the session user to the context when one exists and always
// lets the request through. Cookie-less callers may instead present a
// platform access token in the Authorization header; it is verified
// locally against the platform's signing secret. API handlers decide
// themselves what anonymous access means.
func (l *Loader) Wrap(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if info, _ := l.Sessions.ReadWebSession(ctx, r); info != nil {
			l.Sessions.RefreshWebSessionCookie(w, info)
			ctx = session.WithUser(ctx, l.Sessions.UserFromSessionInfo(info))
			ctx = session.WithWebSessionId(ctx, info.Key)
			r = r.WithContext(ctx)
		} else if user := l.bearerUser(r); user != nil {
			ctx = session.WithUser(ctx, user)
			r = r.WithContext(ctx)
		}
		inner.ServeHTTP(w, r)
	})
}

func (l *Loader) bearerUser(r *http.Request) *models.User {
	if len(l.JWTSecret) == 0 {
		return nil
	}
	token := sec.ExtractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return nil
	}
	claims, err := sec.ParsePlatformAccessToken(token, l.JWTSecret)
	if err != nil {
		return nil
	}
	return &models.User{ID: claims.UserID, Email: claims.Email}
}

var _ routing.HandlerWrapper = (*Loader)(nil)

package handlers

import (
	"context"
	"encoding/json/v2"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/libresign/libresign/platform"
	"github.com/libresign/libresign/responses"
	"github.com/libresign/libresign/web/session/login"
)

// safeNextPath only allows same-site relative targets for post-login
// redirects. Anything else falls back to the dashboard.
func safeNextPath(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/dashboard"
	}
	return next
}

func (h *Handlers) issueSession(ctx context.Context, w http.ResponseWriter, tokens *platform.TokenSet) error {
	user := tokens.User
	if user.ID == "" {
		// some grant responses omit the embedded user object
		fetched, err := h.Platform.GetUser(ctx, tokens.AccessToken)
		if err != nil {
			return err
		}
		user = *fetched
	}
	_, err := h.Sessions.IssueWebSession(ctx, w, login.WebLoginSessionInfo{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		UserIDStr:    user.ID,
		Email:        user.Email,
	})
	return err
}

// AuthCallback handles GET /auth/callback?code=...&next=...
// No code means the visitor did not come from the platform's auth flow.
func (h *Handlers) AuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := r.URL.Query().Get("code")
	if code == "" {
		responses.Redirect302(w, r, "/login")
		return
	}
	tokens, err := h.Platform.ExchangeCode(ctx, code)
	if err != nil {
		log.Printf("[WARN] auth code exchange failed: %v", err)
		responses.RedirectWithQuery(w, r, "/login", map[string]string{"error": "auth_error"})
		return
	}
	if err = h.issueSession(ctx, w, tokens); err != nil {
		log.Printf("[ERROR] web session issue failed: %v", err)
		responses.RedirectWithQuery(w, r, "/login", map[string]string{"error": "session_error"})
		return
	}
	responses.Redirect302(w, r, safeNextPath(r.URL.Query().Get("next")))
}

// Logout revokes the platform session best-effort and always destroys the
// local one.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if info, _ := h.Sessions.ReadWebSession(ctx, r); info != nil {
		if err := h.Platform.SignOut(ctx, info.AccessToken); err != nil {
			log.Printf("[WARN] platform sign-out failed: %v", err)
		}
	}
	h.Sessions.DestroyWebSession(ctx, w, r)
	responses.Redirect302(w, r, "/login")
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (*credentialsRequest, bool) {
	var in credentialsRequest
	if err := json.UnmarshalRead(r.Body, &in); err != nil {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "malformed request body")
		return nil, false
	}
	if in.Email == "" || in.Password == "" {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "email and password are required")
		return nil, false
	}
	return &in, true
}

// APILogin handles POST /api/auth/login with email/password credentials.
func (h *Handlers) APILogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	tokens, err := h.Platform.SignInWithPassword(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, platform.ErrAuthFailed) {
			responses.WriteSimpleErrorJSON(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		log.Printf("[ERROR] platform sign-in failed: %v", err)
		responses.WriteSimpleErrorJSON(w, http.StatusBadGateway, "authentication service unavailable")
		return
	}
	if err = h.issueSession(ctx, w, tokens); err != nil {
		log.Printf("[ERROR] web session issue failed: %v", err)
		responses.WriteSimpleErrorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, map[string]string{"redirect": "/dashboard"})
}

// APISignup handles POST /api/auth/signup. When the platform requires
// email confirmation the response has no session yet; the client is sent
// back to the login page instead of the dashboard.
func (h *Handlers) APISignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	tokens, err := h.Platform.SignUp(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, platform.ErrAuthFailed) {
			responses.WriteSimpleErrorJSON(w, http.StatusUnprocessableEntity, "signup rejected")
			return
		}
		log.Printf("[ERROR] platform signup failed: %v", err)
		responses.WriteSimpleErrorJSON(w, http.StatusBadGateway, "authentication service unavailable")
		return
	}
	if tokens.AccessToken == "" {
		responses.EncodeWriteJSON(w, http.StatusOK, map[string]string{"redirect": "/login", "notice": "confirm_email"})
		return
	}
	if err = h.issueSession(ctx, w, tokens); err != nil {
		log.Printf("[ERROR] web session issue failed: %v", err)
		responses.WriteSimpleErrorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, map[string]string{"redirect": "/dashboard"})
}

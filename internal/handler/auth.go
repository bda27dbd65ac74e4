package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/xid"
	"github.com/sameen/creature-forge/internal/auth"
	"github.com/sameen/creature-forge/internal/service"
)

// AuthHandler manages the Google OAuth login flow, the demo login, and
// session management.
//
// HANDLER RESPONSIBILITIES:
//   - HandleGoogleLogin    → redirect the browser to Google's consent page
//   - HandleGoogleCallback → receive the code, exchange it, issue JWT cookie
//   - HandleDemoLogin      → username-only login for running without OAuth
//   - HandleLogout         → clear the JWT cookie
//   - HandleMe             → return the authenticated caller's identity
type AuthHandler struct {
	google      *auth.GoogleProvider // nil when OAuth creds aren't configured
	authSvc     *service.AuthService
	frontendURL string
	logger      *slog.Logger
}

// NewAuthHandler creates an AuthHandler. google may be nil; the server only
// registers the OAuth routes when a provider is configured.
func NewAuthHandler(
	google *auth.GoogleProvider,
	authSvc *service.AuthService,
	frontendURL string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		google:      google,
		authSvc:     authSvc,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// setTokenCookie installs the session JWT.
// HttpOnly = JavaScript cannot read it (XSS protection).
// SameSite=Lax = sent on top-level navigations but not cross-site POSTs.
// Secure should be true in production (HTTPS only); false here for local dev.
func setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// HandleGoogleLogin redirects the user to Google's authorization page.
//
// HTTP: GET /auth/google/login
//
// CSRF PROTECTION VIA STATE:
// We generate a random state string and store it in a short-lived cookie.
// When Google calls back, HandleGoogleCallback verifies the state matches,
// proving the flow was initiated by this server.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the OAuth login flow.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a provider identity
//  3. Link or create the user account, issue the JWT cookie
//  4. Redirect back to the frontend
//
// Failures redirect to the frontend with ?error=auth_failed rather than
// rendering an error body — the browser is mid-navigation, not fetching
// JSON. Details stay in the logs.
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state missing or mismatched")
		http.Redirect(w, r, h.frontendURL+"/?error=auth_failed", http.StatusSeeOther)
		return
	}

	// Clear the state cookie — it's single-use
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// The user may have denied authorization on Google's consent page
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization",
			slog.String("error", errParam),
		)
		http.Redirect(w, r, h.frontendURL+"/?error=auth_failed", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, h.frontendURL+"/?error=auth_failed", http.StatusSeeOther)
		return
	}

	ident, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: provider exchange failed",
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, h.frontendURL+"/?error=auth_failed", http.StatusSeeOther)
		return
	}

	result, err := h.authSvc.LoginWithProvider(r.Context(), ident)
	if err != nil {
		h.logger.Error("auth callback: login failed", slog.String("error", err.Error()))
		http.Redirect(w, r, h.frontendURL+"/?error=auth_failed", http.StatusSeeOther)
		return
	}

	setTokenCookie(w, result.Token)
	http.Redirect(w, r, h.frontendURL+"/?success=true", http.StatusSeeOther)
}

// HandleDemoLogin authenticates with just a username — no provider round
// trip. Useful for local development and demos without OAuth credentials.
//
// HTTP: POST /auth/demo
// REQUEST BODY: {"username": "ash"}
//
// Responds with the user record; the JWT rides in the Set-Cookie header.
// Repeating the call with the same username returns the SAME account — the
// demo email is derived deterministically from the username.
func (h *AuthHandler) HandleDemoLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("demo login: invalid JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.authSvc.DemoLogin(r.Context(), req.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusOK, result.User)
}

// HandleLogout clears the JWT cookie, effectively logging the user out.
//
// HTTP: POST /auth/logout
//
// Since sessions are stateless (JWT), "logout" just means deleting the
// client-side cookie. The token remains technically valid until it expires,
// but without the cookie the browser can't send it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // tells the browser to delete the cookie immediately
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated caller's identity claims.
//
// HTTP: GET /api/me
// Auth: Required (RequireAuth sets the Identity in context)
//
// The response comes straight from the verified token — no store lookup.
// The frontend uses this to check auth state on load and show the username.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		// Unreachable on a RequireAuth-protected route, but be safe.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "valid authentication required",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       ident.UserID,
		"username": ident.Username,
		"email":    ident.Email,
	})
}

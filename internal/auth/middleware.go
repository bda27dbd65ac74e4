package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "identity", id), ANY package that knows the string
// can read or shadow your value. Using a package-private type prevents
// collisions: only THIS package can create a key of type contextKey, so only
// this package can read or write identities in the context.
type contextKey string

const identityKey contextKey = "identity"

// CookieName is the HTTP cookie the JWT travels in.
const CookieName = "token"

// RequireAuth is a middleware that enforces authentication on protected
// routes. Per request it lands in one of three states:
//
//	no cookie      → 401, handler never runs
//	invalid token  → 401, handler never runs
//	valid token    → Identity stored in the request context, handler runs
//
// The first two are deliberately indistinguishable to the client — both get
// the same unauthenticated response. The gate is stateless: only the signed
// token is trusted, no server-side session is consulted.
//
// COOKIE-BASED TOKEN STORAGE:
// We store the JWT in an HttpOnly cookie rather than localStorage or a
// header. HttpOnly means JavaScript cannot read it, which prevents
// XSS (Cross-Site Scripting) attacks from stealing the token.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthenticated","message":"valid authentication required"}`))
				return
			}

			// Store the claims in context so handlers can read them
			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated caller's claims from the
// request context.
//
// Returns (nil, false) if the request is anonymous (no valid token present).
//
// Usage in handlers:
//
//	ident, ok := auth.IdentityFromContext(r.Context())
//	if !ok {
//	    // only possible on routes missing RequireAuth
//	}
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	ident, ok := ctx.Value(identityKey).(*Identity)
	return ident, ok && ident != nil
}

// extractIdentity reads the JWT cookie and validates it.
//
// COOKIE FLOW:
// 1. Set-Cookie: token=<jwt>; HttpOnly; SameSite=Lax (set on login)
// 2. Browser automatically sends Cookie: token=<jwt> on subsequent requests
// 3. We read r.Cookie("token") and validate it
func extractIdentity(r *http.Request, tokens *TokenService) (*Identity, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		// http.ErrNoCookie — the NoToken state
		return nil, err
	}

	return tokens.Validate(cookie.Value)
}

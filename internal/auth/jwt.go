// Package auth provides JWT token generation and validation for the API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User logs in via /auth/google/login (OAuth) or /auth/demo (username)
// 2. Server finds-or-creates the user record and issues a JWT
// 3. The JWT is stored in an HttpOnly cookie named "token"
// 4. On subsequent API calls, middleware reads the cookie, validates the JWT,
//    and sets the Identity claims in the request context
//
// The token IS the session. There is no server-side session table and no
// revocation list: a token stays valid until its expiry regardless of later
// account changes, and "logout" is just clearing the cookie client-side.
// That trade-off is deliberate — the gate sits on every request and must not
// need a store lookup.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is how long an issued token remains valid.
// The cookie carrying it uses the same value for MaxAge.
const TokenLifetime = 12 * time.Hour

const issuer = "creature-forge"

// Identity is the set of claims embedded in a signed token. It is everything
// the auth gate knows about the caller — protected handlers read these fields
// from the request context without touching the identity store.
type Identity struct {
	UserID   int64
	Username string
	Email    string
}

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens.
// The same secret must be used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims (Issuer, Subject,
// ExpiresAt, IssuedAt) and adds the identity fields the app needs.
//
// The "sub" (Subject) claim carries the user id — the standard JWT claim for
// identifying who the token belongs to. Username and email ride along so the
// gate can populate a full Identity without a store lookup.
type claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Generate creates and signs a new JWT for the given identity.
//
// Token lifetime: TokenLifetime (12 hours).
//
// Signing algorithm: HS256 (HMAC-SHA256)
// - Symmetric: same key for signing and verifying
// - Fast and simple — good for single-server deployments
func (s *TokenService) Generate(ident Identity) (string, error) {
	return s.GenerateWithDuration(ident, TokenLifetime)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used in tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(ident Identity, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Username: ident.Username,
		Email:    ident.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(ident.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the Identity it
// encodes.
//
// This function sits on every protected request and must never panic on
// untrusted input — every failure mode (empty string, malformed token, bad
// signature, expiry, wrong issuer, wrong algorithm) comes back as an error
// the gate treats uniformly as "not authenticated".
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches (prevents tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks, where an
//     attacker sends a token signed with "none" and a careless verifier
//     accepts it — jwt.WithValidMethods closes that hole)
func (s *TokenService) Validate(tokenStr string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// Translate jwt library errors into cleaner messages
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID < 1 {
		return nil, fmt.Errorf("auth: token has an invalid subject")
	}

	return &Identity{
		UserID:   userID,
		Username: c.Username,
		Email:    c.Email,
	}, nil
}

// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the stores
//
// Services accept primitives and domain structs, never *http.Request, and
// return domain errors (apperror), never status codes. Both repository
// backends (memory, sqlite) satisfy the same interfaces, so nothing in this
// package knows which one is running.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sameen/creature-forge/internal/apperror"
	"github.com/sameen/creature-forge/internal/auth"
	"github.com/sameen/creature-forge/internal/model"
	"github.com/sameen/creature-forge/internal/repository"
)

// MinUsernameLength applies to the demo login username, after trimming.
const MinUsernameLength = 2

// demoEmailDomain is the synthetic domain for demo accounts. The derived
// email is deterministic from the username, which is what makes a repeat
// demo login land on the same account instead of minting a new one.
const demoEmailDomain = "demo.test"

// AuthService handles login, account creation, and identity linking.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the HTTP handler
// can set the cookie and write the response in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginWithProvider handles a completed OAuth exchange.
//
// IDENTITY LINKING ORDER (must not be reordered):
//  1. match by provider id       → returning user
//  2. match by email             → existing account (usually a demo account
//     with the same email); attach the provider id to it
//  3. neither                    → create a new account
//
// Step 2 is what prevents a demo user from ending up with two accounts when
// they later sign in with Google using the same address.
func (s *AuthService) LoginWithProvider(ctx context.Context, ident *auth.ProviderIdentity) (*AuthResult, error) {
	if ident == nil || ident.ProviderID == "" {
		return nil, fmt.Errorf("service/auth: provider identity must not be empty")
	}

	user, err := s.users.FindByProviderID(ctx, ident.ProviderID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up provider id: %w", err)
	}

	if user == nil && ident.Email != "" {
		user, err = s.users.FindByEmail(ctx, ident.Email)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/auth: looking up email: %w", err)
		}
		if user != nil {
			if err := s.users.AttachProviderID(ctx, user.ID, ident.ProviderID); err != nil {
				return nil, fmt.Errorf("service/auth: linking provider id to user %d: %w", user.ID, err)
			}
			user.ProviderID = ident.ProviderID
			s.logger.Info("provider identity linked to existing account",
				slog.Int64("userID", user.ID),
			)
		}
	}

	if user == nil {
		user, err = s.createUser(ctx, &model.User{
			Email:      providerEmailOrFallback(ident),
			Username:   providerNameOrFallback(ident),
			ProviderID: ident.ProviderID,
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info("user registered via provider", slog.Int64("userID", user.ID))
	}

	return s.issue(user)
}

// DemoLogin authenticates (or registers) a demo account from a bare
// username.
//
// The account email is derived deterministically: lowercase the username,
// strip all whitespace, append "@demo.test". Logging in twice with "ash"
// therefore returns the same record with the same id.
func (s *AuthService) DemoLogin(ctx context.Context, username string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be at least %d characters", MinUsernameLength))
	}

	email := strings.Join(strings.Fields(strings.ToLower(username)), "") + "@" + demoEmailDomain

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up demo email: %w", err)
	}

	if user == nil {
		user, err = s.createUser(ctx, &model.User{
			Email:    email,
			Username: username,
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info("demo user registered",
			slog.Int64("userID", user.ID),
			slog.String("username", user.Username),
		)
	}

	return s.issue(user)
}

// createUser wraps UserRepository.CreateUser with conflict recovery: if a
// concurrent login created the same identity first (same email or provider
// id), re-read and return the winner instead of failing the request. This is
// the documented resolution of the duplicate-registration race:
// unique-constraint rejection in the store, find-again here.
func (s *AuthService) createUser(ctx context.Context, user *model.User) (*model.User, error) {
	err := s.users.CreateUser(ctx, user)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrConflict) {
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	existing, lookupErr := s.users.FindByEmail(ctx, user.Email)
	if lookupErr != nil {
		return nil, fmt.Errorf("service/auth: re-reading user after conflict: %w", lookupErr)
	}
	return existing, nil
}

// issue signs a token for the user and bundles the result.
func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(auth.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// providerEmailOrFallback returns the provider-supplied email, or a
// synthetic unique address when the user has hidden theirs. The fallback is
// derived from the provider id so it is stable across logins.
func providerEmailOrFallback(ident *auth.ProviderIdentity) string {
	if ident.Email != "" {
		return ident.Email
	}
	return fmt.Sprintf("user-%s@users.noreply.google.com", ident.ProviderID)
}

func providerNameOrFallback(ident *auth.ProviderIdentity) string {
	if ident.DisplayName != "" {
		return ident.DisplayName
	}
	return "user-" + ident.ProviderID
}

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/sameen/creature-forge/internal/apperror"
	"github.com/sameen/creature-forge/internal/auth"
	"github.com/sameen/creature-forge/internal/repository/memory"
)

// Tests run against the real in-memory backend rather than mocks: it is the
// production default, and the service's conflict-recovery path depends on the
// store's actual uniqueness semantics.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuthService(t *testing.T) (*AuthService, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return NewAuthService(memory.New(), tokens, discardLogger()), tokens
}

func TestDemoLogin_CreatesAccount(t *testing.T) {
	svc, tokens := newTestAuthService(t)

	res, err := svc.DemoLogin(context.Background(), "ash")
	if err != nil {
		t.Fatalf("DemoLogin() error = %v", err)
	}

	if res.User.ID != 1 {
		t.Errorf("user id = %d, want 1", res.User.ID)
	}
	if res.User.Username != "ash" {
		t.Errorf("username = %q, want %q", res.User.Username, "ash")
	}
	if res.User.Email != "ash@demo.test" {
		t.Errorf("email = %q, want %q", res.User.Email, "ash@demo.test")
	}

	// The issued token must validate and carry the account identity
	ident, err := tokens.Validate(res.Token)
	if err != nil {
		t.Fatalf("Validate(issued token) error = %v", err)
	}
	if ident.UserID != res.User.ID || ident.Email != res.User.Email {
		t.Errorf("token identity = %+v, want user %d / %s", ident, res.User.ID, res.User.Email)
	}
}

// Logging in twice with the same username must land on the same account —
// the derived email is deterministic, so the second login is a find, not a
// create.
func TestDemoLogin_RepeatIsSameAccount(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	first, err := svc.DemoLogin(ctx, "ash")
	if err != nil {
		t.Fatalf("first DemoLogin() error = %v", err)
	}
	second, err := svc.DemoLogin(ctx, "ash")
	if err != nil {
		t.Fatalf("second DemoLogin() error = %v", err)
	}

	if first.User.ID != second.User.ID {
		t.Errorf("repeat login created a new account: ids %d vs %d",
			first.User.ID, second.User.ID)
	}
}

// Whitespace and case variants of a username derive the same email, so they
// are the same account.
func TestDemoLogin_EmailDerivation(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	first, err := svc.DemoLogin(ctx, "Ash Ketchum")
	if err != nil {
		t.Fatalf("DemoLogin(\"Ash Ketchum\") error = %v", err)
	}
	if first.User.Email != "ashketchum@demo.test" {
		t.Errorf("derived email = %q, want %q", first.User.Email, "ashketchum@demo.test")
	}

	second, err := svc.DemoLogin(ctx, "  ash ketchum  ")
	if err != nil {
		t.Fatalf("DemoLogin variant error = %v", err)
	}
	if second.User.ID != first.User.ID {
		t.Errorf("case/whitespace variant created a new account: ids %d vs %d",
			first.User.ID, second.User.ID)
	}
}

func TestDemoLogin_ValidatesUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
	}{
		{"empty", ""},
		{"single character", "a"},
		{"whitespace only", "   "},
		{"single character after trim", " a "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.DemoLogin(ctx, tt.username)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("DemoLogin(%q) error = %v, want ErrValidation", tt.username, err)
			}
		})
	}
}

func TestLoginWithProvider_NewUser(t *testing.T) {
	svc, _ := newTestAuthService(t)

	res, err := svc.LoginWithProvider(context.Background(), &auth.ProviderIdentity{
		ProviderID:  "google-123",
		Email:       "ash@gmail.com",
		DisplayName: "Ash Ketchum",
	})
	if err != nil {
		t.Fatalf("LoginWithProvider() error = %v", err)
	}

	if res.User.Email != "ash@gmail.com" {
		t.Errorf("email = %q, want %q", res.User.Email, "ash@gmail.com")
	}
	if res.User.Username != "Ash Ketchum" {
		t.Errorf("username = %q, want %q", res.User.Username, "Ash Ketchum")
	}
	if res.User.ProviderID != "google-123" {
		t.Errorf("provider id = %q, want %q", res.User.ProviderID, "google-123")
	}
}

func TestLoginWithProvider_ReturningUser(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	ident := &auth.ProviderIdentity{ProviderID: "google-123", Email: "ash@gmail.com", DisplayName: "Ash"}

	first, err := svc.LoginWithProvider(ctx, ident)
	if err != nil {
		t.Fatalf("first LoginWithProvider() error = %v", err)
	}
	second, err := svc.LoginWithProvider(ctx, ident)
	if err != nil {
		t.Fatalf("second LoginWithProvider() error = %v", err)
	}

	if first.User.ID != second.User.ID {
		t.Errorf("returning user got a new account: ids %d vs %d",
			first.User.ID, second.User.ID)
	}
}

// A demo account that later signs in with Google using the same address must
// be linked, not duplicated.
func TestLoginWithProvider_LinksExistingEmailAccount(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	demo, err := svc.DemoLogin(ctx, "ash")
	if err != nil {
		t.Fatalf("DemoLogin() error = %v", err)
	}

	linked, err := svc.LoginWithProvider(ctx, &auth.ProviderIdentity{
		ProviderID: "google-123",
		Email:      "ash@demo.test",
	})
	if err != nil {
		t.Fatalf("LoginWithProvider() error = %v", err)
	}

	if linked.User.ID != demo.User.ID {
		t.Errorf("provider login created account %d, want linked to %d",
			linked.User.ID, demo.User.ID)
	}
	if linked.User.ProviderID != "google-123" {
		t.Errorf("provider id not attached: %q", linked.User.ProviderID)
	}

	// Subsequent provider logins resolve by provider id to the same account
	again, err := svc.LoginWithProvider(ctx, &auth.ProviderIdentity{ProviderID: "google-123"})
	if err != nil {
		t.Fatalf("repeat LoginWithProvider() error = %v", err)
	}
	if again.User.ID != demo.User.ID {
		t.Errorf("linked account lost: id %d, want %d", again.User.ID, demo.User.ID)
	}
}

// Providers can withhold the email. The account still needs a stable unique
// address, so a synthetic one is derived from the provider id.
func TestLoginWithProvider_HiddenEmailFallback(t *testing.T) {
	svc, _ := newTestAuthService(t)

	res, err := svc.LoginWithProvider(context.Background(), &auth.ProviderIdentity{
		ProviderID: "google-123",
	})
	if err != nil {
		t.Fatalf("LoginWithProvider() error = %v", err)
	}

	if res.User.Email != "user-google-123@users.noreply.google.com" {
		t.Errorf("fallback email = %q", res.User.Email)
	}
	if res.User.Username != "user-google-123" {
		t.Errorf("fallback username = %q", res.User.Username)
	}
}

func TestLoginWithProvider_RejectsEmptyIdentity(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.LoginWithProvider(ctx, nil); err == nil {
		t.Error("LoginWithProvider(nil) should fail")
	}
	if _, err := svc.LoginWithProvider(ctx, &auth.ProviderIdentity{}); err == nil {
		t.Error("LoginWithProvider(empty) should fail")
	}
}

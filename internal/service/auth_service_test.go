package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedCatalog(t)

	t.Run("first user is admin with progress rows", func(t *testing.T) {
		user := env.register(t, "  First@Example.com ")
		if user.Email != "first@example.com" {
			t.Errorf("Email = %q, want lowercased and trimmed", user.Email)
		}
		if !user.IsAdmin {
			t.Error("first registered user should be admin")
		}
		rows, err := env.progress.GetUserModuleProgress(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserModuleProgress() error = %v", err)
		}
		if len(rows) != 2 {
			t.Errorf("progress rows = %d, want 2", len(rows))
		}
		if got := env.mailer.count("welcome"); got != 1 {
			t.Errorf("welcome emails = %d, want 1", got)
		}
	})

	t.Run("second user is not admin", func(t *testing.T) {
		user := env.register(t, "second@example.com")
		if user.IsAdmin {
			t.Error("second registered user should not be admin")
		}
	})

	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{"duplicate email", RegisterInput{Email: "FIRST@example.com", Password: "password123", PasswordConfirm: "password123", Name: "Again"}, ErrEmailTaken},
		{"bad email", RegisterInput{Email: "nope", Password: "password123", PasswordConfirm: "password123", Name: "Nope"}, ErrValidation},
		{"short password", RegisterInput{Email: "a@example.com", Password: "short", PasswordConfirm: "short", Name: "Short"}, ErrValidation},
		{"mismatched confirmation", RegisterInput{Email: "a@example.com", Password: "password123", PasswordConfirm: "password124", Name: "Mismatch"}, ErrValidation},
		{"short name", RegisterInput{Email: "a@example.com", Password: "password123", PasswordConfirm: "password123", Name: "A"}, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.authService.Register(ctx, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoginAndSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "learner@example.com")

	if _, _, err := env.authService.Login(ctx, "learner@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(wrong password) error = %v, want %v", err, ErrInvalidCredentials)
	}
	if _, _, err := env.authService.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(unknown user) error = %v, want %v", err, ErrInvalidCredentials)
	}

	session, loggedIn, err := env.authService.Login(ctx, "Learner@Example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("Login() user = %d, want %d", loggedIn.ID, user.ID)
	}

	got, err := env.authService.ValidateSession(ctx, session.ID)
	if err != nil || got.ID != user.ID {
		t.Errorf("ValidateSession() = %v, %v, want user %d", got, err, user.ID)
	}

	if err := env.authService.Logout(ctx, session.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := env.authService.ValidateSession(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ValidateSession() after logout error = %v, want %v", err, ErrSessionNotFound)
	}

	t.Run("expired sessions", func(t *testing.T) {
		if _, err := env.users.CreateSession(ctx, "expired-session", user.ID, time.Now().Add(-time.Hour)); err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		if _, err := env.users.CreateSession(ctx, "stale-session", user.ID, time.Now().Add(-time.Minute)); err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}

		if _, err := env.authService.ValidateSession(ctx, "expired-session"); !errors.Is(err, ErrSessionExpired) {
			t.Errorf("ValidateSession(expired) error = %v, want %v", err, ErrSessionExpired)
		}

		n, err := env.authService.CleanupExpiredSessions(ctx)
		if err != nil {
			t.Fatalf("CleanupExpiredSessions() error = %v", err)
		}
		if n != 1 {
			t.Errorf("CleanupExpiredSessions() = %d, want 1", n)
		}
	})
}

func TestAccessTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "learner@example.com")

	if _, _, err := env.authService.IssueAccessToken(ctx, "learner@example.com", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("IssueAccessToken(wrong password) error = %v, want %v", err, ErrInvalidCredentials)
	}

	token, expiresAt, err := env.authService.IssueAccessToken(ctx, "learner@example.com", "password123")
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Errorf("expiresAt = %v, want in the future", expiresAt)
	}

	got, err := env.authService.ValidateAccessToken(ctx, token)
	if err != nil || got.ID != user.ID {
		t.Errorf("ValidateAccessToken() = %v, %v, want user %d", got, err, user.ID)
	}

	if _, err := env.authService.ValidateAccessToken(ctx, token+"x"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ValidateAccessToken(tampered) error = %v, want %v", err, ErrSessionNotFound)
	}
}

func TestOAuthLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedCatalog(t)

	t.Run("new user gets progress and a welcome email", func(t *testing.T) {
		session, user, err := env.authService.OAuthLogin(ctx, "google", "g-123", "New.User@example.com", "")
		if err != nil {
			t.Fatalf("OAuthLogin() error = %v", err)
		}
		if session == nil || user.Email != "new.user@example.com" || user.Name != "new.user" {
			t.Errorf("OAuthLogin() = %+v, %+v", session, user)
		}
		rows, _ := env.progress.GetUserModuleProgress(ctx, user.ID)
		if len(rows) != 2 {
			t.Errorf("progress rows = %d, want 2", len(rows))
		}
		if got := env.mailer.count("welcome"); got != 1 {
			t.Errorf("welcome emails = %d, want 1", got)
		}

		// OAuth-only accounts cannot log in with a password
		if _, _, err := env.authService.Login(ctx, "new.user@example.com", ""); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(oauth user) error = %v, want %v", err, ErrInvalidCredentials)
		}
	})

	t.Run("returning user is found by subject", func(t *testing.T) {
		_, first, _ := env.authService.OAuthLogin(ctx, "google", "g-123", "new.user@example.com", "")
		_, again, err := env.authService.OAuthLogin(ctx, "google", "g-123", "changed@example.com", "")
		if err != nil {
			t.Fatalf("OAuthLogin() error = %v", err)
		}
		if again.ID != first.ID {
			t.Errorf("OAuthLogin() user = %d, want %d", again.ID, first.ID)
		}
	})

	t.Run("existing password user is linked", func(t *testing.T) {
		existing := env.register(t, "linked@example.com")
		_, user, err := env.authService.OAuthLogin(ctx, "facebook", "fb-9", "linked@example.com", "Linked")
		if err != nil {
			t.Fatalf("OAuthLogin() error = %v", err)
		}
		if user.ID != existing.ID {
			t.Errorf("OAuthLogin() user = %d, want %d", user.ID, existing.ID)
		}
		byOAuth, _ := env.users.GetUserByOAuth(ctx, "facebook", "fb-9")
		if byOAuth == nil || byOAuth.ID != existing.ID {
			t.Errorf("GetUserByOAuth() = %+v, want user %d", byOAuth, existing.ID)
		}
	})

	t.Run("email linked to another provider", func(t *testing.T) {
		_, _, err := env.authService.OAuthLogin(ctx, "facebook", "fb-other", "new.user@example.com", "")
		if !errors.Is(err, ErrEmailTaken) {
			t.Errorf("OAuthLogin() error = %v, want %v", err, ErrEmailTaken)
		}
	})

	t.Run("invalid email", func(t *testing.T) {
		_, _, err := env.authService.OAuthLogin(ctx, "google", "g-bad", "not-an-email", "")
		if !errors.Is(err, ErrValidation) {
			t.Errorf("OAuthLogin() error = %v, want %v", err, ErrValidation)
		}
	})
}

func TestAuthStorageFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "learner@example.com")
	env.db.Close()

	tests := []struct {
		name string
		call func() error
	}{
		{"register", func() error {
			_, err := env.authService.Register(ctx, RegisterInput{
				Email: "second@example.com", Password: "password123", PasswordConfirm: "password123", Name: "Second",
			})
			return err
		}},
		{"login", func() error {
			_, _, err := env.authService.Login(ctx, "learner@example.com", "password123")
			return err
		}},
		{"create session", func() error {
			_, err := env.authService.CreateSession(ctx, user.ID)
			return err
		}},
		{"validate session", func() error {
			_, err := env.authService.ValidateSession(ctx, "any-session")
			return err
		}},
		{"cleanup sessions", func() error {
			_, err := env.authService.CleanupExpiredSessions(ctx)
			return err
		}},
		{"oauth login", func() error {
			_, _, err := env.authService.OAuthLogin(ctx, "google", "subject-1", "oauth@example.com", "OAuth")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrPersistence) {
				t.Errorf("%s on closed database error = %v, want %v", tt.name, err, ErrPersistence)
			}
		})
	}
}

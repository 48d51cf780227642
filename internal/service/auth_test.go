package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/ridepool/internal/apperror"
	"github.com/sakif/ridepool/internal/auth"
	"github.com/sakif/ridepool/internal/model"
)

func newAuthService(t *testing.T) (*AuthService, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	tokens, err := auth.NewTokenService("test-secret-0123456789")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	// Minimum bcrypt cost keeps the tests fast.
	passwords := auth.NewPasswordServiceForTest(4)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewAuthService(env.users, passwords, tokens, logger), env
}

func TestRegister_CreatesUserWithPassengerProfile(t *testing.T) {
	svc, env := newAuthService(t)

	user, err := svc.Register(context.Background(), "alice", "alice@example.com", "s3cret-pass", "Alice")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == "" {
		t.Error("expected user to have an ID")
	}
	if user.PasswordHash == "s3cret-pass" {
		t.Error("password stored in plaintext")
	}

	profile, err := env.profiles.GetByUserID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("profile not provisioned: %v", err)
	}
	if profile.Role != model.RolePassenger {
		t.Errorf("Role = %q, want %q", profile.Role, model.RolePassenger)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newAuthService(t)

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"short username", "ab", "", "s3cret-pass"},
		{"whitespace username", "a b c", "", "s3cret-pass"},
		{"short password", "alice", "", "short"},
		{"bad email", "alice", "not-an-email", "s3cret-pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.email, tt.password, "")
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want validation error", err)
			}
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "", "s3cret-pass", ""); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(ctx, "alice", "", "other-pass99", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Register() duplicate error = %v, want validation error", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "", "s3cret-pass", "")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("valid credentials", func(t *testing.T) {
		token, user, err := svc.Login(ctx, "alice", "s3cret-pass")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if token == "" {
			t.Error("expected a token")
		}
		if user.ID != registered.ID {
			t.Errorf("user ID = %q, want %q", user.ID, registered.ID)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "alice", "wrong-pass")
		if !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("Login() error = %v, want unauthorized", err)
		}
	})

	t.Run("unknown username", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody", "s3cret-pass")
		if !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("Login() error = %v, want unauthorized", err)
		}
	})
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "", "s3cret-pass", "")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "wrong", "new-password")
		if !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("ChangePassword() error = %v, want unauthorized", err)
		}
	})

	t.Run("weak new password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "s3cret-pass", "short")
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("ChangePassword() error = %v, want validation error", err)
		}
	})

	t.Run("success and old password stops working", func(t *testing.T) {
		if err := svc.ChangePassword(ctx, user.ID, "s3cret-pass", "new-password"); err != nil {
			t.Fatalf("ChangePassword() error = %v", err)
		}
		if _, _, err := svc.Login(ctx, "alice", "s3cret-pass"); !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("old password still accepted: %v", err)
		}
		if _, _, err := svc.Login(ctx, "alice", "new-password"); err != nil {
			t.Errorf("new password rejected: %v", err)
		}
	})
}

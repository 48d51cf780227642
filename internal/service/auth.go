package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/ridepool/internal/apperror"
	"github.com/sakif/ridepool/internal/auth"
	"github.com/sakif/ridepool/internal/model"
	"github.com/sakif/ridepool/internal/repository"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 8
	MaxNameLength     = 100
)

// AuthService handles registration, login, and password changes.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// Register creates a user with a hashed password and a passenger profile,
// atomically: either both rows land or neither does. Everybody starts as a
// passenger; drivers upgrade through the profile service afterwards.
func (s *AuthService) Register(ctx context.Context, username, email, password, name string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	if len(username) < MinUsernameLength {
		return nil, apperror.ValidationFailed("username", "username must be at least 3 characters")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username", "username is too long")
	}
	if strings.ContainsAny(username, " \t\n") {
		return nil, apperror.ValidationFailed("username", "username cannot contain whitespace")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperror.ValidationFailed("email", "invalid email address")
		}
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password", "password must be at least 8 characters")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name", "name is too long")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Name:         name,
	}
	profile := &model.Profile{Role: model.RolePassenger}

	if err := s.users.CreateWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("username", "username is already taken")
		}
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("id", user.ID),
		slog.String("username", username))
	return user, nil
}

// Login verifies credentials and issues a signed token. The error is the
// same whether the username is unknown or the password is wrong, so login
// responses don't leak which usernames exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", nil, apperror.Unauthorized("invalid username or password")
		}
		return "", nil, err
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return "", nil, apperror.Unauthorized("invalid username or password")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		s.logger.Error("failed to issue token", slog.String("error", err.Error()))
		return "", nil, err
	}

	s.logger.Info("user logged in", slog.String("id", user.ID))
	return token, user, nil
}

// ChangePassword verifies the old password before setting the new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.passwords.Verify(user.PasswordHash, oldPassword); err != nil {
		return apperror.Unauthorized("current password is incorrect")
	}
	if len(newPassword) < MinPasswordLength {
		return apperror.ValidationFailed("newPassword", "password must be at least 8 characters")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", slog.String("id", userID))
	return nil
}

// GetUser fetches a user by ID, for the "who am I" endpoint.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/wandertrails/tours-api/internal/core/domain"
	"github.com/wandertrails/tours-api/internal/core/ports"
)

const bcryptCost = 12

// AuthService implements registration, login, the reset-token flow and
// password rotation.
type AuthService struct {
	users  ports.UserRepository
	tokens *TokenService
	mail   ports.Mailer
	log    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, tokens *TokenService, mail ports.Mailer, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, mail: mail, log: log}
}

// Signup registers a new principal. The role is always "user"; privileged
// roles are granted out-of-band.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, string, error) {
	if in.Password != in.PasswordConfirm {
		return nil, "", domain.ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:      in.Name,
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Role:      domain.RoleUser,
		Password:  string(hash),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.IssueAccess(created.ID.Hex())
	if err != nil {
		return nil, "", err
	}

	s.log.Info().Str("user_id", created.ID.Hex()).Msg("principal registered")
	return created, token, nil
}

// Login verifies credentials and mints an access token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	if email == "" || password == "" {
		return nil, "", domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmailWithPassword(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueAccess(user.ID.Hex())
	if err != nil {
		return nil, "", err
	}

	user.Password = ""
	return user, token, nil
}

// ForgotPassword issues a one-time reset token, persists its hash + expiry
// and mails the plain token. If delivery fails the just-written reset state
// is rolled back before the failure is surfaced, so no orphaned token can be
// consumed later.
func (s *AuthService) ForgotPassword(ctx context.Context, email, resetURL string) error {
	user, err := s.users.FindByEmailWithPassword(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}

	plain, hash, expires, err := s.tokens.IssueReset()
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, user.ID.Hex(), hash, expires); err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Forgot your password? Submit a PATCH request with your new password to: %s/%s.\n"+
			"The link is valid for 10 minutes. If you didn't forget your password, ignore this email.",
		strings.TrimRight(resetURL, "/"), plain)

	if err := s.mail.Send(ctx, user.Email, "Your password reset token", body); err != nil {
		// Compensating rollback: the token must not stay consumable when the
		// user never received it.
		if clearErr := s.users.ClearResetToken(ctx, user.ID.Hex()); clearErr != nil {
			s.log.Error().Err(clearErr).Str("user_id", user.ID.Hex()).Msg("failed to roll back reset token")
		}
		s.log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("reset mail delivery failed")
		return domain.ErrMailDelivery
	}

	s.log.Info().Str("user_id", user.ID.Hex()).Msg("reset token issued")
	return nil
}

// ResetPassword consumes a reset token and sets a new password. The stored
// hash and expiry are cleared in the same update that writes the new
// credential, making the token single use.
func (s *AuthService) ResetPassword(ctx context.Context, plainToken, password, confirm string) (string, error) {
	if password != confirm {
		return "", domain.ErrPasswordMismatch
	}

	user, err := s.users.FindByResetToken(ctx, s.tokens.HashResetToken(plainToken))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrResetTokenInvalid
		}
		return "", err
	}
	if !s.tokens.ConsumeReset(plainToken, user.PasswordResetToken, user.PasswordResetExpires) {
		return "", domain.ErrResetTokenInvalid
	}

	token, err := s.rotatePassword(ctx, user.ID.Hex(), password)
	if err != nil {
		return "", err
	}
	s.log.Info().Str("user_id", user.ID.Hex()).Msg("password reset via token")
	return token, nil
}

// UpdatePassword rotates the credential of a logged-in principal after
// verifying the current password. Every token issued before this call fails
// the stale-session check from now on.
func (s *AuthService) UpdatePassword(ctx context.Context, principalID, current, password, confirm string) (string, error) {
	if password != confirm {
		return "", domain.ErrPasswordMismatch
	}

	user, err := s.users.FindByIDWithPassword(ctx, principalID)
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.rotatePassword(ctx, user.ID.Hex(), password)
	if err != nil {
		return "", err
	}
	s.log.Info().Str("user_id", user.ID.Hex()).Msg("password updated")
	return token, nil
}

// rotatePassword writes the new hash and stamps passwordChangedAt one second
// in the past, so the access token issued immediately afterwards is not
// itself considered stale.
func (s *AuthService) rotatePassword(ctx context.Context, userID, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	changedAt := time.Now().Add(-time.Second)
	if err := s.users.UpdatePassword(ctx, userID, string(hash), changedAt); err != nil {
		return "", err
	}
	return s.tokens.IssueAccess(userID)
}

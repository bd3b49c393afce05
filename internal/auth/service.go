// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/lumenpress/lumen/internal/platform/apperr"
	"github.com/lumenpress/lumen/internal/platform/sec"
	"github.com/lumenpress/lumen/internal/platform/validate"
)

// credentialMismatchMessage is deliberately identical for unknown accounts
// and wrong passwords so a caller cannot distinguish the two cases.
const credentialMismatchMessage = "Invalid username or password"

// LoginResult carries the outcome of a successful authentication.
type LoginResult struct {
	User      *User     `json:"user"`
	Token     string    `json:"-"` // Delivered via the session cookie only.
	ExpiresAt time.Time `json:"expires_at"`
}

// Service implements the authentication business logic.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	resets   ResetTokenRepository
	mailer   Mailer
	logger   *slog.Logger

	// now is injectable for deterministic expiry tests.
	now func() time.Time
}

// NewService creates the authentication service with its dependencies.
func NewService(
	users UserRepository,
	sessions SessionRepository,
	resets ResetTokenRepository,
	mailer Mailer,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		resets:   resets,
		mailer:   mailer,
		logger:   logger,
		now:      time.Now,
	}
}

/*
Login verifies credentials and mints a new opaque session.

The identifier matches either the username or the email address. Both the
unknown-account and wrong-password cases fail with the same client-visible
message; only the internal cause differs.

A successful login also stamps the user's last-login time. That write is
best-effort: its failure is logged and does not fail the login.
*/
func (s *Service) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	v := &validate.Validator{}
	v.Required(FieldUsername, identifier).Required(FieldPassword, password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized(credentialMismatchMessage)
		}
		return nil, err
	}

	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperr.Unauthorized(credentialMismatchMessage)
	}

	token, err := sec.GenerateSecureToken(SessionTokenLength)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.now()
	session := &Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(SessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to record last login",
			"user_id", user.ID, "error", err)
	}
	user.LastLoginAt = &now

	return &LoginResult{
		User:      user,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

/*
CurrentUser resolves a session token to its user.

It never returns an error: any failure, whether an unknown token, an expired
session, or a storage fault, yields a nil user and the caller proceeds as
anonymous. Storage faults are logged so they remain observable.
*/
func (s *Service) CurrentUser(ctx context.Context, token string) *User {
	if token == "" {
		return nil
	}

	user, err := s.sessions.FindUserByToken(ctx, token, s.now())
	if err != nil {
		if !apperr.IsNotFound(err) {
			s.logger.ErrorContext(ctx, "session lookup failed", "error", err)
		}
		return nil
	}

	return user
}

/*
ResolveIdentity adapts CurrentUser for the authentication middleware.

It returns the lightweight identity the request pipeline carries in context,
or nil when the token does not resolve to a live session.
*/
func (s *Service) ResolveIdentity(ctx context.Context, token string) *sec.Identity {
	user := s.CurrentUser(ctx, token)
	if user == nil {
		return nil
	}

	return &sec.Identity{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}
}

/*
Logout terminates the session for the given token.

Logout is idempotent: an unknown or already-removed token succeeds silently,
so a stale cookie never produces a user-visible error.
*/
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteByToken(ctx, token)
}

/*
RequestPasswordReset starts the forgot-password flow for an email address.

The operation is enumeration-safe: it reports success whether or not the
email belongs to an account. When it does, a single-use token valid for one
hour is stored and delivery is attempted; a mailer failure is logged but
still reported as success to the requester.
*/
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	v := &validate.Validator{}
	v.Required(FieldEmail, email).Email(FieldEmail, email)
	if err := v.Err(); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if apperr.IsNotFound(err) {
			// Unknown address: pretend success.
			return nil
		}
		return err
	}

	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return apperr.Internal(err)
	}

	now := s.now()
	reset := &PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(ResetTokenTTL),
		Used:      false,
		CreatedAt: now,
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return err
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
			s.logger.ErrorContext(ctx, "failed to send password reset email",
				"user_id", user.ID, "error", err)
		}
	}

	return nil
}

/*
ResetPassword redeems a reset token and installs a new password.

The token must be unused and unexpired; used, expired, and unknown tokens all
fail with the same message. A successful reset retires the token and revokes
every session of the account, logging the user out everywhere.
*/
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	v := &validate.Validator{}
	v.Required(FieldToken, token)
	v.Required(FieldNewPassword, newPassword).MinLen(FieldNewPassword, newPassword, 8)
	if err := v.Err(); err != nil {
		return err
	}

	reset, err := s.resets.FindActive(ctx, token, s.now())
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.Unauthorized("Invalid or expired reset token")
		}
		return err
	}

	hash, err := sec.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}

	if err := s.users.UpdatePassword(ctx, reset.UserID, hash); err != nil {
		return err
	}

	if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
		return err
	}

	// Force re-authentication on every device.
	if err := s.sessions.DeleteAllForUser(ctx, reset.UserID); err != nil {
		return err
	}

	return nil
}

/*
CleanupExpiredSessions removes sessions past their expiry and reports how
many were removed. Expiry is otherwise enforced at read time, so this exists
purely to keep the table from growing without bound.
*/
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	removed, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.logger.InfoContext(ctx, "expired sessions removed", "count", removed)
	}

	return removed, nil
}

// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package auth

import (
	"context"
	"time"
)

// # Repository Contracts

// UserRepository handles persistence operations for user accounts.
type UserRepository interface {
	// FindByIdentifier retrieves a user whose username OR email equals the
	// given identifier. Returns apperr.NotFound when no account matches.
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)

	// FindByEmail retrieves a user by exact email address.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// TouchLastLogin records a successful authentication timestamp.
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

// SessionRepository handles persistence operations for cookie sessions.
type SessionRepository interface {
	// Create persists a new session row.
	Create(ctx context.Context, session *Session) error

	// FindUserByToken resolves a session token to its owning user, provided
	// the session has not expired as of now. Returns apperr.NotFound for
	// unknown and expired tokens alike.
	FindUserByToken(ctx context.Context, token string, now time.Time) (*User, error)

	// DeleteByToken removes a single session. Removing a token that does not
	// exist is not an error.
	DeleteByToken(ctx context.Context, token string) error

	// DeleteAllForUser removes every session belonging to the user,
	// terminating all of their devices at once.
	DeleteAllForUser(ctx context.Context, userID string) error

	// DeleteExpired removes all sessions whose expiry is at or before now
	// and reports how many rows were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ResetTokenRepository handles persistence operations for password reset tokens.
type ResetTokenRepository interface {
	// Create persists a new reset token row.
	Create(ctx context.Context, token *PasswordResetToken) error

	// FindActive retrieves a reset token that is unused and unexpired as of
	// now. Returns apperr.NotFound for unknown, used, and expired tokens alike.
	FindActive(ctx context.Context, token string, now time.Time) (*PasswordResetToken, error)

	// MarkUsed flips the single-use flag, permanently retiring the token.
	MarkUsed(ctx context.Context, id string) error
}

// Mailer delivers password reset instructions out of band.
//
// The service treats delivery as best-effort: a mailer failure is logged but
// never surfaced to the requester, to avoid leaking account existence.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

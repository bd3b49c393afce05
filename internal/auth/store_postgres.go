// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenpress/lumen/internal/platform/dberr"
	"github.com/lumenpress/lumen/pkg/uuid"
)

// # User Store

// PostgresUserStore implements UserRepository backed by PostgreSQL.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewPostgresUserStore creates a PostgreSQL-backed user store.
func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

const userColumns = `
	id, username, email, password_hash,
	COALESCE(full_name, ''), COALESCE(avatar_url, ''),
	is_admin, last_login_at, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FullName, &u.AvatarURL,
		&u.IsAdmin, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByIdentifier retrieves a user matching the identifier by username or email.
func (s *PostgresUserStore) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1 OR email = $1`

	user, err := scanUser(s.pool.QueryRow(ctx, query, identifier))
	if err != nil {
		return nil, dberr.Wrap(err, "user")
	}

	return user, nil
}

// FindByEmail retrieves a user by exact email address.
func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`

	user, err := scanUser(s.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, dberr.Wrap(err, "user")
	}

	return user, nil
}

// UpdatePassword replaces the stored password hash.
func (s *PostgresUserStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	if _, err := s.pool.Exec(ctx, query, userID, passwordHash); err != nil {
		return dberr.Wrap(err, "user")
	}

	return nil
}

// TouchLastLogin records a successful authentication timestamp.
func (s *PostgresUserStore) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	query := `
		UPDATE users
		SET last_login_at = $2
		WHERE id = $1`

	if _, err := s.pool.Exec(ctx, query, userID, at); err != nil {
		return dberr.Wrap(err, "user")
	}

	return nil
}

// # Session Store

// PostgresSessionStore implements SessionRepository backed by PostgreSQL.
type PostgresSessionStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionStore creates a PostgreSQL-backed session store.
func NewPostgresSessionStore(pool *pgxpool.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Create persists a new session row.
func (s *PostgresSessionStore) Create(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO auth_sessions (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if session.ID == "" {
		session.ID = uuid.New()
	}

	_, err := s.pool.Exec(ctx, query,
		session.ID, session.UserID, session.Token, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return dberr.Wrap(err, "session")
	}

	return nil
}

// FindUserByToken resolves an unexpired session token to its owning user.
func (s *PostgresSessionStore) FindUserByToken(ctx context.Context, token string, now time.Time) (*User, error) {
	query := `
		SELECT
			u.id, u.username, u.email, u.password_hash,
			COALESCE(u.full_name, ''), COALESCE(u.avatar_url, ''),
			u.is_admin, u.last_login_at, u.created_at, u.updated_at
		FROM auth_sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > $2`

	user, err := scanUser(s.pool.QueryRow(ctx, query, token, now))
	if err != nil {
		return nil, dberr.Wrap(err, "session")
	}

	return user, nil
}

// DeleteByToken removes a single session. Idempotent.
func (s *PostgresSessionStore) DeleteByToken(ctx context.Context, token string) error {
	query := `DELETE FROM auth_sessions WHERE token = $1`

	if _, err := s.pool.Exec(ctx, query, token); err != nil {
		return dberr.Wrap(err, "session")
	}

	return nil
}

// DeleteAllForUser removes every session belonging to the user.
func (s *PostgresSessionStore) DeleteAllForUser(ctx context.Context, userID string) error {
	query := `DELETE FROM auth_sessions WHERE user_id = $1`

	if _, err := s.pool.Exec(ctx, query, userID); err != nil {
		return dberr.Wrap(err, "session")
	}

	return nil
}

// DeleteExpired removes all sessions past their expiry.
func (s *PostgresSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM auth_sessions WHERE expires_at <= $1`

	tag, err := s.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, dberr.Wrap(err, "session")
	}

	return tag.RowsAffected(), nil
}

// # Reset Token Store

// PostgresResetTokenStore implements ResetTokenRepository backed by PostgreSQL.
type PostgresResetTokenStore struct {
	pool *pgxpool.Pool
}

// NewPostgresResetTokenStore creates a PostgreSQL-backed reset token store.
func NewPostgresResetTokenStore(pool *pgxpool.Pool) *PostgresResetTokenStore {
	return &PostgresResetTokenStore{pool: pool}
}

// Create persists a new reset token row.
func (s *PostgresResetTokenStore) Create(ctx context.Context, token *PasswordResetToken) error {
	query := `
		INSERT INTO password_resets (id, user_id, token, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if token.ID == "" {
		token.ID = uuid.New()
	}

	_, err := s.pool.Exec(ctx, query,
		token.ID, token.UserID, token.Token, token.ExpiresAt, token.Used, token.CreatedAt)
	if err != nil {
		return dberr.Wrap(err, "reset token")
	}

	return nil
}

// FindActive retrieves a reset token that is unused and unexpired as of now.
func (s *PostgresResetTokenStore) FindActive(ctx context.Context, token string, now time.Time) (*PasswordResetToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, used, created_at
		FROM password_resets
		WHERE token = $1 AND used = FALSE AND expires_at > $2`

	var t PasswordResetToken
	err := s.pool.QueryRow(ctx, query, token, now).Scan(
		&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.Used, &t.CreatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "reset token")
	}

	return &t, nil
}

// MarkUsed flips the single-use flag, permanently retiring the token.
func (s *PostgresResetTokenStore) MarkUsed(ctx context.Context, id string) error {
	query := `
		UPDATE password_resets
		SET used = TRUE
		WHERE id = $1`

	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return dberr.Wrap(err, "reset token")
	}

	return nil
}

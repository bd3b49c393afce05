// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenpress/lumen/internal/platform/apperr"
	"github.com/lumenpress/lumen/internal/platform/sec"
	"github.com/lumenpress/lumen/pkg/uuid"
)

// # Test Fakes

type fakeUserRepo struct {
	users []*User
	// hashes indexed by user ID, updated by UpdatePassword.
	hashes map[string]string
}

func (f *fakeUserRepo) FindByIdentifier(_ context.Context, identifier string) (*User, error) {
	for _, u := range f.users {
		if u.Username == identifier || u.Email == identifier {
			copied := *u
			copied.PasswordHash = f.hashes[u.ID]
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	f.hashes[userID] = passwordHash
	return nil
}

func (f *fakeUserRepo) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	for _, u := range f.users {
		if u.ID == userID {
			stamped := at
			u.LastLoginAt = &stamped
		}
	}
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]*Session // keyed by token
	users    map[string]*User    // keyed by user ID
}

func (f *fakeSessionRepo) Create(_ context.Context, session *Session) error {
	if session.ID == "" {
		session.ID = uuid.New()
	}
	f.sessions[session.Token] = session
	return nil
}

func (f *fakeSessionRepo) FindUserByToken(_ context.Context, token string, now time.Time) (*User, error) {
	session, ok := f.sessions[token]
	if !ok || !session.ExpiresAt.After(now) {
		return nil, apperr.NotFound("session")
	}
	user, ok := f.users[session.UserID]
	if !ok {
		return nil, apperr.NotFound("session")
	}
	copied := *user
	return &copied, nil
}

func (f *fakeSessionRepo) DeleteByToken(_ context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessionRepo) DeleteAllForUser(_ context.Context, userID string) error {
	for token, session := range f.sessions {
		if session.UserID == userID {
			delete(f.sessions, token)
		}
	}
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var removed int64
	for token, session := range f.sessions {
		if !session.ExpiresAt.After(now) {
			delete(f.sessions, token)
			removed++
		}
	}
	return removed, nil
}

type fakeResetRepo struct {
	tokens map[string]*PasswordResetToken // keyed by token
}

func (f *fakeResetRepo) Create(_ context.Context, token *PasswordResetToken) error {
	if token.ID == "" {
		token.ID = uuid.New()
	}
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeResetRepo) FindActive(_ context.Context, token string, now time.Time) (*PasswordResetToken, error) {
	t, ok := f.tokens[token]
	if !ok || t.Used || !t.ExpiresAt.After(now) {
		return nil, apperr.NotFound("reset token")
	}
	copied := *t
	return &copied, nil
}

func (f *fakeResetRepo) MarkUsed(_ context.Context, id string) error {
	for _, t := range f.tokens {
		if t.ID == id {
			t.Used = true
		}
	}
	return nil
}

type fakeMailer struct {
	sent []string // email addresses
	err  error
}

func (f *fakeMailer) SendPasswordReset(_ context.Context, email, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

// # Harness

type authFixture struct {
	service  *Service
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	resets   *fakeResetRepo
	mailer   *fakeMailer
	now      time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	hash, err := sec.HashPassword("correct horse battery staple")
	require.NoError(t, err)

	admin := &User{
		ID:       uuid.New(),
		Username: "editor",
		Email:    "editor@example.com",
		IsAdmin:  true,
	}

	users := &fakeUserRepo{
		users:  []*User{admin},
		hashes: map[string]string{admin.ID: hash},
	}
	sessions := &fakeSessionRepo{
		sessions: map[string]*Session{},
		users:    map[string]*User{admin.ID: admin},
	}
	resets := &fakeResetRepo{tokens: map[string]*PasswordResetToken{}}
	mailer := &fakeMailer{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewService(users, sessions, resets, mailer, logger)

	fixed := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	return &authFixture{
		service:  service,
		users:    users,
		sessions: sessions,
		resets:   resets,
		mailer:   mailer,
		now:      fixed,
	}
}

// # Login

/*
TestLogin_Success verifies that valid credentials mint a session with a
7-day expiry and a 64-character hex token, by username or by email.
*/
func TestLogin_Success(t *testing.T) {
	for _, identifier := range []string{"editor", "editor@example.com"} {
		t.Run(identifier, func(t *testing.T) {
			f := newAuthFixture(t)

			result, err := f.service.Login(context.Background(), identifier, "correct horse battery staple")
			require.NoError(t, err)

			assert.Len(t, result.Token, 2*SessionTokenLength)
			assert.Equal(t, f.now.Add(SessionTTL), result.ExpiresAt)
			assert.Equal(t, "editor", result.User.Username)

			// The session is persisted and the login time is stamped.
			require.Contains(t, f.sessions.sessions, result.Token)
			require.NotNil(t, result.User.LastLoginAt)
			assert.Equal(t, f.now, *result.User.LastLoginAt)
		})
	}
}

/*
TestLogin_IndistinguishableFailures verifies that an unknown account and a
wrong password produce the exact same client-facing error.
*/
func TestLogin_IndistinguishableFailures(t *testing.T) {
	f := newAuthFixture(t)

	_, unknownErr := f.service.Login(context.Background(), "nobody", "whatever12")
	_, wrongErr := f.service.Login(context.Background(), "editor", "wrong password")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.Equal(t, "Invalid username or password", wrongErr.Error())

	// Neither attempt created a session.
	assert.Empty(t, f.sessions.sessions)
}

func TestLogin_ValidatesInput(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Login(context.Background(), "", "")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

// # Session Resolution

/*
TestCurrentUser verifies the token-to-user resolution contract: valid tokens
resolve, everything else degrades silently to anonymous.
*/
func TestCurrentUser(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.service.Login(context.Background(), "editor", "correct horse battery staple")
	require.NoError(t, err)

	t.Run("valid_token", func(t *testing.T) {
		user := f.service.CurrentUser(context.Background(), result.Token)
		require.NotNil(t, user)
		assert.Equal(t, "editor", user.Username)
	})

	t.Run("unknown_token", func(t *testing.T) {
		assert.Nil(t, f.service.CurrentUser(context.Background(), "deadbeef"))
	})

	t.Run("empty_token", func(t *testing.T) {
		assert.Nil(t, f.service.CurrentUser(context.Background(), ""))
	})

	t.Run("expired_session", func(t *testing.T) {
		f.service.now = func() time.Time { return f.now.Add(SessionTTL + time.Minute) }
		assert.Nil(t, f.service.CurrentUser(context.Background(), result.Token))
	})
}

func TestResolveIdentity(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.service.Login(context.Background(), "editor", "correct horse battery staple")
	require.NoError(t, err)

	identity := f.service.ResolveIdentity(context.Background(), result.Token)
	require.NotNil(t, identity)
	assert.Equal(t, result.User.ID, identity.UserID)
	assert.True(t, identity.IsAdmin)

	assert.Nil(t, f.service.ResolveIdentity(context.Background(), "bogus"))
}

/*
TestLogout verifies the session is removed and that repeating the call with
the same (now unknown) token still succeeds.
*/
func TestLogout(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.service.Login(context.Background(), "editor", "correct horse battery staple")
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background(), result.Token))
	assert.Nil(t, f.service.CurrentUser(context.Background(), result.Token))

	// Idempotent: stale and empty tokens are fine.
	require.NoError(t, f.service.Logout(context.Background(), result.Token))
	require.NoError(t, f.service.Logout(context.Background(), ""))
}

// # Password Reset Flow

/*
TestRequestPasswordReset verifies the enumeration-safe contract: the caller
cannot tell a known address from an unknown one.
*/
func TestRequestPasswordReset(t *testing.T) {
	t.Run("known_email", func(t *testing.T) {
		f := newAuthFixture(t)

		require.NoError(t, f.service.RequestPasswordReset(context.Background(), "editor@example.com"))

		require.Len(t, f.resets.tokens, 1)
		for _, token := range f.resets.tokens {
			assert.Equal(t, f.now.Add(ResetTokenTTL), token.ExpiresAt)
			assert.False(t, token.Used)
		}
		assert.Equal(t, []string{"editor@example.com"}, f.mailer.sent)
	})

	t.Run("unknown_email", func(t *testing.T) {
		f := newAuthFixture(t)

		require.NoError(t, f.service.RequestPasswordReset(context.Background(), "ghost@example.com"))

		assert.Empty(t, f.resets.tokens)
		assert.Empty(t, f.mailer.sent)
	})

	t.Run("mailer_failure_is_swallowed", func(t *testing.T) {
		f := newAuthFixture(t)
		f.mailer.err = assert.AnError

		require.NoError(t, f.service.RequestPasswordReset(context.Background(), "editor@example.com"))
		require.Len(t, f.resets.tokens, 1)
	})
}

/*
TestResetPassword verifies the full redemption: new password installed, token
retired, and every session of the account revoked.
*/
func TestResetPassword(t *testing.T) {
	f := newAuthFixture(t)

	login, err := f.service.Login(context.Background(), "editor", "correct horse battery staple")
	require.NoError(t, err)

	require.NoError(t, f.service.RequestPasswordReset(context.Background(), "editor@example.com"))
	var rawToken string
	for token := range f.resets.tokens {
		rawToken = token
	}

	require.NoError(t, f.service.ResetPassword(context.Background(), rawToken, "a brand new passphrase"))

	// Old password no longer works, new one does.
	_, err = f.service.Login(context.Background(), "editor", "correct horse battery staple")
	require.Error(t, err)
	_, err = f.service.Login(context.Background(), "editor", "a brand new passphrase")
	require.NoError(t, err)

	// The pre-reset session was revoked everywhere.
	assert.Nil(t, f.service.CurrentUser(context.Background(), login.Token))

	// Single-use: a second redemption fails.
	err = f.service.ResetPassword(context.Background(), rawToken, "yet another passphrase")
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired reset token", err.Error())
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.service.RequestPasswordReset(context.Background(), "editor@example.com"))
	var rawToken string
	for token := range f.resets.tokens {
		rawToken = token
	}

	f.service.now = func() time.Time { return f.now.Add(ResetTokenTTL + time.Second) }

	err := f.service.ResetPassword(context.Background(), rawToken, "a brand new passphrase")
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired reset token", err.Error())
}

func TestResetPassword_RejectsShortPassword(t *testing.T) {
	f := newAuthFixture(t)

	err := f.service.ResetPassword(context.Background(), "sometoken", "short")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

// # Maintenance

/*
TestCleanupExpiredSessions verifies that only sessions past their expiry are
removed and the count is reported.
*/
func TestCleanupExpiredSessions(t *testing.T) {
	f := newAuthFixture(t)

	live, err := f.service.Login(context.Background(), "editor", "correct horse battery staple")
	require.NoError(t, err)

	// Plant two already-expired sessions by hand.
	for _, token := range []string{"expired-1", "expired-2"} {
		f.sessions.sessions[token] = &Session{
			ID:        uuid.New(),
			UserID:    live.User.ID,
			Token:     token,
			ExpiresAt: f.now.Add(-time.Hour),
		}
	}

	removed, err := f.service.CleanupExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	// The live session survived.
	assert.NotNil(t, f.service.CurrentUser(context.Background(), live.Token))
}

// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

/*
Package auth implements the admin identity and session management layer.

It defines the core domain entities (User, Session, PasswordResetToken) and
the logic for credential verification, opaque cookie sessions, and the
forgot-password flow.

# Architecture

This layer is the "Truth" of the system for identity. Accounts are seeded out
of band (there is no self-registration); the application only mutates the
last-login timestamp and the password hash.
*/
package auth

import "time"

// # Domain Entities

// User represents a back-office account.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Explicitly omitted from JSON for security.
	FullName     string     `json:"full_name,omitempty"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	IsAdmin      bool       `json:"is_admin"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Session represents an active cookie-backed session.
//
// Validity is a read-time predicate (expires_at > now): an expired row stays
// in storage until the cleanup operation removes it or the user logs out.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"-"` // Opaque bearer credential. Omitted for security.
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// PasswordResetToken represents a single-use recovery credential.
//
// Redeemable at most once: Used transitions false→true exactly when the
// password is reset, and only before ExpiresAt.
type PasswordResetToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// # Authentication Constraints

const (
	// SessionTTL is the duration a session remains valid.
	// Seven days matches the session cookie's max age.
	SessionTTL = 7 * 24 * time.Hour

	// SessionTokenLength is the byte length of the random session token.
	// Hex encoding doubles it on the wire (64 characters).
	SessionTokenLength = 32

	// ResetTokenTTL is the duration a password reset token remains valid.
	// Short-lived (1 hour) for security.
	ResetTokenTTL = 1 * time.Hour

	// ResetTokenLength is the byte length of the random password reset token.
	ResetTokenLength = 32
)

// # Field Identifiers

// Field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldToken       = "token"
	FieldNewPassword = "new_password"
)

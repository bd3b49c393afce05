// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package auth

import (
	"context"
	"log/slog"
)

// LogMailer implements [Mailer] by logging instead of sending.
//
// Deployments without an SMTP integration use this so the forgot-password
// flow stays functional end to end: the operator can read the token from
// the logs and hand it to the user manually.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a log-only mailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendPasswordReset logs the reset delivery instead of mailing it.
func (m *LogMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	m.logger.InfoContext(ctx, "password reset requested",
		"email", email, "token", token)
	return nil
}

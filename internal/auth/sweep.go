// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package auth

import (
	"context"
	"time"
)

// StartSessionSweep runs CleanupExpiredSessions on a fixed interval until the
// context is cancelled. An interval of zero disables the sweep entirely;
// expiry is still enforced at read time, so this only bounds table growth.
//
// Call it as a goroutine from the composition root:
//
//	go authService.StartSessionSweep(ctx, cfg.SessionSweepInterval)
func (s *Service) StartSessionSweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CleanupExpiredSessions(ctx); err != nil {
				s.logger.ErrorContext(ctx, "session sweep failed", "error", err)
			}
		}
	}
}

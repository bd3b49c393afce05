// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package settings

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// CacheTTL is how long a loaded snapshot stays fresh. Settings change
// rarely and nothing breaks from reading a value up to this much stale.
const CacheTTL = 5 * time.Minute

// Cache is a read-through, in-process cache over the settings repository.
//
// # Failure Policy
//
// Get never fails: a load error serves the previous snapshot when one
// exists (stale beats broken), and the compiled-in defaults when none does.
// The error is logged either way.
type Cache struct {
	repo   Repository
	logger *slog.Logger

	// clock is injectable for deterministic TTL tests.
	clock func() time.Time

	mu        sync.Mutex
	snapshot  *Settings
	fetchedAt time.Time
}

// NewCache creates the settings cache.
func NewCache(repo Repository, logger *slog.Logger) *Cache {
	return &Cache{
		repo:   repo,
		logger: logger,
		clock:  time.Now,
	}
}

// Get returns the current settings snapshot, loading from storage at most
// once per TTL window.
func (c *Cache) Get(ctx context.Context) Settings {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	if c.snapshot != nil && now.Sub(c.fetchedAt) < CacheTTL {
		return *c.snapshot
	}

	rows, err := c.repo.Load(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "settings load failed", "error", err)
		if c.snapshot != nil {
			// Serve stale rather than failing the page render.
			return *c.snapshot
		}
		return Defaults()
	}

	loaded := fromRows(rows)
	c.snapshot = &loaded
	c.fetchedAt = now

	return loaded
}

// Invalidate drops the snapshot so the next Get reloads from storage.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
}

// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

/*
Package pagecache caches rendered page payloads in Redis.

Public pages (home, post details, category listings, the sitemap) are cheap
to serve from a rendered snapshot and expensive to rebuild on every hit.
This package stores those snapshots under `page:<path>` keys with a
revalidation TTL, and exposes targeted invalidation for the write paths that
make a page stale (publishing a post, editing settings).

# Failure Policy

The cache is an accelerator, never a dependency: a Redis failure on read
means a miss, and a failure on write or invalidation is logged and
swallowed. Content operations must keep working with the cache down.
*/
package pagecache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lumenpress/lumen/internal/platform/constants"
)

// DefaultRevalidateTTL bounds how stale a cached page can get even when no
// write path invalidates it explicitly.
const DefaultRevalidateTTL = 5 * time.Minute

// Store is the read-path view of the cache: transports that serve rendered
// public pages check it before rebuilding and refill it after.
type Store interface {
	// Get returns the cached payload for a path, if present and fresh.
	Get(ctx context.Context, path string) ([]byte, bool)

	// Set stores a rendered payload under the path.
	Set(ctx context.Context, path string, payload []byte) error
}

// Invalidator is the write-path view of the cache: services that change
// content call it for every public path their change makes stale.
type Invalidator interface {
	// Invalidate drops the cached snapshots for the given paths.
	Invalidate(ctx context.Context, paths ...string) error

	// InvalidateAll drops every cached page. Used by settings changes that
	// affect the rendering of all pages (e.g. site title).
	InvalidateAll(ctx context.Context) error
}

// Cache is the Redis-backed implementation.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache creates a page cache. A non-positive ttl falls back to
// [DefaultRevalidateTTL].
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultRevalidateTTL
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached payload for a path, if present and fresh.
// Any Redis failure is reported as a miss.
func (c *Cache) Get(ctx context.Context, path string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, key(path)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "page cache read failed", "path", path, "error", err)
		}
		return nil, false
	}
	return payload, true
}

// Set stores a rendered payload under the path with the revalidation TTL.
func (c *Cache) Set(ctx context.Context, path string, payload []byte) error {
	if err := c.client.Set(ctx, key(path), payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "page cache write failed", "path", path, "error", err)
		return err
	}
	return nil
}

// Invalidate drops the cached snapshots for the given paths.
func (c *Cache) Invalidate(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	keys := make([]string, len(paths))
	for i, path := range paths {
		keys[i] = key(path)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "page cache invalidation failed",
			"paths", paths, "error", err)
		return err
	}

	return nil
}

// InvalidateAll drops every cached page via an incremental scan, so a large
// cache never blocks Redis the way a KEYS sweep would.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, constants.RedisPrefixPage+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.WarnContext(ctx, "page cache scan failed", "error", err)
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "page cache flush failed", "error", err)
		return err
	}

	return nil
}

// key maps a public path to its Redis key.
func key(path string) string {
	return constants.RedisPrefixPage + path
}

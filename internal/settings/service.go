// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package settings

import (
	"context"
	"log/slog"

	"github.com/lumenpress/lumen/internal/pagecache"
	"github.com/lumenpress/lumen/internal/platform/validate"
	"github.com/lumenpress/lumen/pkg/pagination"
)

// Service implements the settings business logic.
type Service struct {
	repo   Repository
	cache  *Cache
	pages  pagecache.Invalidator
	logger *slog.Logger
}

// NewService creates the settings service with its dependencies.
func NewService(repo Repository, cache *Cache, pages pagecache.Invalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, pages: pages, logger: logger}
}

// Get returns the current settings snapshot through the read cache.
func (s *Service) Get(ctx context.Context) Settings {
	return s.cache.Get(ctx)
}

/*
Update validates and persists a full settings snapshot.

Every key is upserted in one transaction, the read cache is dropped, and —
because settings like the site title render on every page — the entire page
cache is flushed rather than individual paths.
*/
func (s *Service) Update(ctx context.Context, input Settings) (Settings, error) {
	v := &validate.Validator{}
	v.Required("site_title", input.SiteTitle)
	v.Range("posts_per_page", input.PostsPerPage, 1, pagination.MaxLimit)
	if input.SiteURL != "" {
		v.URL("site_url", input.SiteURL)
	}
	if input.AdminEmail != "" {
		v.Email("admin_email", input.AdminEmail)
	}
	if err := v.Err(); err != nil {
		return Settings{}, err
	}

	if err := s.repo.Save(ctx, input.toRows()); err != nil {
		return Settings{}, err
	}

	s.cache.Invalidate()

	if err := s.pages.InvalidateAll(ctx); err != nil {
		s.logger.WarnContext(ctx, "page cache flush after settings update failed", "error", err)
	}

	s.logger.InfoContext(ctx, "settings updated")

	return s.cache.Get(ctx), nil
}

// PerPage reports the configured public page size. Exists so the content
// transport can honor posts_per_page without importing this package's
// internals.
func (s *Service) PerPage(ctx context.Context) int {
	return s.cache.Get(ctx).PostsPerPage
}

// SiteURL reports the configured canonical base URL (used by the SEO
// surfaces).
func (s *Service) SiteURL(ctx context.Context) string {
	return s.cache.Get(ctx).SiteURL
}

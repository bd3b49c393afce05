// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

/*
Package seo serves the crawler-facing surfaces: sitemap.xml and robots.txt.

Both derive from live data — the sitemap enumerates published posts and
categories, robots.txt points at the sitemap under the configured site URL —
and both degrade gracefully: a storage failure never breaks the crawl, it
just shrinks the sitemap to the home page.
*/
package seo

import (
	"context"
	"encoding/xml"
	"log/slog"
	"strings"
	"time"

	"github.com/lumenpress/lumen/internal/content"
	"github.com/lumenpress/lumen/pkg/pagination"
)

// ContentSource is the slice of the content service the sitemap needs.
type ContentSource interface {
	ListPublished(ctx context.Context, p pagination.Params) ([]*content.Post, pagination.Meta, error)
	ListCategories(ctx context.Context) ([]*content.Category, error)
}

// SettingsSource supplies the canonical base URL.
type SettingsSource interface {
	SiteURL(ctx context.Context) string
}

// Service renders the SEO documents.
type Service struct {
	content  ContentSource
	settings SettingsSource
	logger   *slog.Logger
}

// NewService creates the SEO service.
func NewService(contentSource ContentSource, settingsSource SettingsSource, logger *slog.Logger) *Service {
	return &Service{content: contentSource, settings: settingsSource, logger: logger}
}

// # Sitemap

type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

/*
Sitemap renders the XML urlset.

Entries, in order: the home page (priority 1.0, daily), every published
post (priority 0.7, weekly, lastmod from its publish/update time), every
category page (priority 0.6, weekly). When the post or category listing
fails, the affected section is dropped and the error logged; the document
always contains at least the home page.
*/
func (s *Service) Sitemap(ctx context.Context) ([]byte, error) {
	base := strings.TrimSuffix(s.settings.SiteURL(ctx), "/")

	set := urlSet{
		Xmlns: sitemapNamespace,
		URLs: []urlEntry{{
			Loc:        base + "/",
			LastMod:    time.Now().UTC().Format("2006-01-02"),
			ChangeFreq: "daily",
			Priority:   "1.0",
		}},
	}

	for _, post := range s.publishedPosts(ctx) {
		entry := urlEntry{
			Loc:        base + "/" + post.Slug,
			ChangeFreq: "weekly",
			Priority:   "0.7",
		}
		if post.PublishedAt != nil {
			modified := *post.PublishedAt
			if post.UpdatedAt.After(modified) {
				modified = post.UpdatedAt
			}
			entry.LastMod = modified.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, entry)
	}

	categories, err := s.content.ListCategories(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "sitemap category listing failed", "error", err)
	}
	for _, category := range categories {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        base + "/category/" + category.Slug,
			ChangeFreq: "weekly",
			Priority:   "0.6",
		})
	}

	payload, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}

	return append([]byte(xml.Header), payload...), nil
}

// publishedPosts pages through the full published set. A failure mid-way
// returns what was gathered so far.
func (s *Service) publishedPosts(ctx context.Context) []*content.Post {
	var all []*content.Post

	params := pagination.Params{Page: 1, Limit: pagination.MaxLimit}
	for {
		posts, meta, err := s.content.ListPublished(ctx, params)
		if err != nil {
			s.logger.WarnContext(ctx, "sitemap post listing failed",
				"page", params.Page, "error", err)
			return all
		}
		all = append(all, posts...)

		if params.Page >= meta.TotalPages {
			return all
		}
		params.Page++
	}
}

// # Robots

// staticExtensions are asset suffixes crawlers gain nothing from indexing.
var staticExtensions = []string{".json", ".js.map", ".css.map"}

// Robots renders robots.txt: the public site is open, the admin and API
// surfaces are not, and the sitemap location is advertised.
func (s *Service) Robots(ctx context.Context) []byte {
	base := strings.TrimSuffix(s.settings.SiteURL(ctx), "/")

	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /admin/\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("Disallow: /preview\n")
	for _, ext := range staticExtensions {
		b.WriteString("Disallow: /*" + ext + "$\n")
	}
	b.WriteString("\nSitemap: " + base + "/sitemap.xml\n")

	return []byte(b.String())
}

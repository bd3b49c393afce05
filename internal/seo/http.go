// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package seo

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumenpress/lumen/internal/pagecache"
	"github.com/lumenpress/lumen/internal/platform/apperr"
	"github.com/lumenpress/lumen/internal/platform/respond"
)

// HTTP serves the crawler endpoints at the site root (not under /api).
type HTTP struct {
	service *Service

	// pages caches the rendered sitemap; content mutations invalidate
	// "/sitemap.xml" alongside their other paths. Nil disables caching.
	pages *pagecache.Cache
}

// NewHTTP creates the HTTP transport for the SEO surfaces.
func NewHTTP(service *Service, pages *pagecache.Cache) *HTTP {
	return &HTTP{service: service, pages: pages}
}

// Routes returns the router for the root-level crawler paths.
func (h *HTTP) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/sitemap.xml", h.handleSitemap)
	router.Get("/robots.txt", h.handleRobots)
	return router
}

const sitemapCachePath = "/sitemap.xml"

// handleSitemap processes GET /sitemap.xml, serving the cached rendering
// when a fresh one exists.
func (h *HTTP) handleSitemap(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()

	if h.pages != nil {
		if payload, hit := h.pages.Get(ctx, sitemapCachePath); hit {
			writeXML(writer, payload)
			return
		}
	}

	payload, err := h.service.Sitemap(ctx)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	if h.pages != nil {
		_ = h.pages.Set(ctx, sitemapCachePath, payload)
	}

	writeXML(writer, payload)
}

// handleRobots processes GET /robots.txt.
func (h *HTTP) handleRobots(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = writer.Write(h.service.Robots(request.Context()))
}

func writeXML(writer http.ResponseWriter, payload []byte) {
	writer.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = writer.Write(payload)
}

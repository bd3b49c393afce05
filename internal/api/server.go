// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lumenpress/lumen/internal/auth"
	"github.com/lumenpress/lumen/internal/content"
	"github.com/lumenpress/lumen/internal/media"
	"github.com/lumenpress/lumen/internal/platform/config"
	"github.com/lumenpress/lumen/internal/platform/constants"
	"github.com/lumenpress/lumen/internal/platform/middleware"
	"github.com/lumenpress/lumen/internal/seo"
	"github.com/lumenpress/lumen/internal/settings"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles the session endpoints (login, logout, password resets).
	Auth *auth.HTTP

	// Content handles posts and categories, public and admin.
	Content *content.HTTP

	// Settings handles the site settings, public subset and admin.
	Settings *settings.HTTP

	// Media handles blob uploads (admin only).
	Media *media.HTTP

	// SEO handles the root-level crawler endpoints.
	SEO *seo.HTTP
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, resolve middleware.IdentityFunc, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(ctx))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(resolve))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Crawler Surface
	// sitemap.xml and robots.txt live at the site root, not under /api.
	r.Mount("/", h.SEO.Routes())

	// # Uploaded Media
	// Blobs are written by the admin API and served statically here.
	r.Handle(cfg.UploadBaseURL+"/*", http.StripPrefix(cfg.UploadBaseURL+"/",
		http.FileServer(http.Dir(cfg.UploadDir))))

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", h.Auth.Routes())
		api.Mount("/settings", h.Settings.PublicRoutes())
		api.Mount("/", h.Content.PublicRoutes())

		// Back office: everything below requires an admin session.
		api.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.RequireAdmin)
			admin.Mount("/settings", h.Settings.AdminRoutes())
			admin.Mount("/media", h.Media.Routes())
			admin.Mount("/", h.Content.AdminRoutes())
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

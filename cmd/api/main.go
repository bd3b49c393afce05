// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

// Command api is the entry point for the LumenPress HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire domain services and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumenpress/lumen/internal/api"
	"github.com/lumenpress/lumen/internal/auth"
	"github.com/lumenpress/lumen/internal/content"
	"github.com/lumenpress/lumen/internal/media"
	"github.com/lumenpress/lumen/internal/pagecache"
	"github.com/lumenpress/lumen/internal/platform/config"
	"github.com/lumenpress/lumen/internal/platform/constants"
	"github.com/lumenpress/lumen/internal/platform/migration"
	pgstore "github.com/lumenpress/lumen/internal/platform/postgres"
	redisstore "github.com/lumenpress/lumen/internal/platform/redis"
	"github.com/lumenpress/lumen/internal/platform/sec"
	"github.com/lumenpress/lumen/internal/seo"
	"github.com/lumenpress/lumen/internal/settings"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(
		slog.String("app", constants.AppName),
		slog.String("version", constants.AppVersion),
	)
	slog.SetDefault(log)

	log.Info("[LumenPress] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(
			slog.String("app", constants.AppName),
			slog.String("version", constants.AppVersion),
		)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	pageCache := pagecache.NewCache(rdb, pagecache.DefaultRevalidateTTL, log)

	blobStore, err := media.NewFileStore(cfg.UploadDir, cfg.UploadBaseURL, log)
	must(log, err, "initialize blob store")

	// Authentication
	userRepository := auth.NewPostgresUserStore(pool)
	sessionRepository := auth.NewPostgresSessionStore(pool)
	resetRepository := auth.NewPostgresResetTokenStore(pool)
	authService := auth.NewService(userRepository, sessionRepository, resetRepository,
		auth.NewLogMailer(log), log)
	authHandler := auth.NewHTTP(authService, cfg)

	// Settings (needed by content pagination and SEO)
	settingsRepository := settings.NewPostgresStore(pool)
	settingsCache := settings.NewCache(settingsRepository, log)
	settingsService := settings.NewService(settingsRepository, settingsCache, pageCache, log)
	settingsHandler := settings.NewHTTP(settingsService)

	// Content
	previewTokens := sec.NewPreviewTokenService(cfg.SessionSecret, constants.PreviewTokenIssuer)
	postRepository := content.NewPostgresPostStore(pool)
	categoryRepository := content.NewPostgresCategoryStore(pool)

	var draftGenerator content.Generator
	if cfg.OpenAIAPIKey != "" {
		draftGenerator = content.NewOpenAIGenerator(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
		log.Info("assisted_drafting_enabled", slog.String("model", cfg.OpenAIModel))
	}

	contentService := content.NewService(postRepository, categoryRepository,
		blobStore, pageCache, previewTokens, draftGenerator, log)
	contentHandler := content.NewHTTP(contentService,
		func(r *http.Request) int {
			return settingsService.PerPage(r.Context())
		},
		pageCache,
		func(r *http.Request, post *content.Post) any {
			return seo.BlogPosting(settingsService.SiteURL(r.Context()), post)
		})

	// Media & SEO
	mediaHandler := media.NewHTTP(blobStore)
	seoService := seo.NewService(contentService, settingsService, log)
	seoHandler := seo.NewHTTP(seoService, pageCache)

	// ── 8. Background Maintenance ─────────────────────────────────────────
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	go authService.StartSessionSweep(rootCtx, cfg.SessionSweepInterval)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Content:   contentHandler,
		Settings:  settingsHandler,
		Media:     mediaHandler,
		SEO:       seoHandler,
	}

	resolveIdentity := func(r *http.Request, token string) *sec.Identity {
		return authService.ResolveIdentity(r.Context(), token)
	}

	server := api.NewServer(rootCtx, cfg, log, resolveIdentity, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

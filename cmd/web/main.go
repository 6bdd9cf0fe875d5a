// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command web is the entry point for the roster web client.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL and Redis, when a selected backend needs them.
//  4. Run database migrations (idempotent).
//  5. Build the identity provider, document store, and tab registry.
//  6. Wire HTTP handlers.
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

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/roster/data"
	"github.com/taibuivan/roster/internal/api"
	"github.com/taibuivan/roster/internal/auth"
	"github.com/taibuivan/roster/internal/docstore"
	"github.com/taibuivan/roster/internal/identity"
	"github.com/taibuivan/roster/internal/platform/config"
	"github.com/taibuivan/roster/internal/platform/constants"
	"github.com/taibuivan/roster/internal/platform/migration"
	pgstore "github.com/taibuivan/roster/internal/platform/postgres"
	redisstore "github.com/taibuivan/roster/internal/platform/redis"
	"github.com/taibuivan/roster/internal/platform/sec"
	"github.com/taibuivan/roster/internal/roster"
	"github.com/taibuivan/roster/internal/session"
	"github.com/taibuivan/roster/internal/view"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("identity_backend", cfg.IdentityBackend),
		slog.String("docstore_backend", cfg.DocstoreBackend),
		slog.String("token_cache", cfg.TokenCache),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	health := api.HealthDependencies{}

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	var pool *pgxpool.Pool
	if cfg.NeedsPostgres() {
		pool, err = pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("closing_postgres_pool")
			pool.Close()
		}()

		health.CheckDatabase = func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }

		// ── 4. Migrations ─────────────────────────────────────────────────
		must(log, migration.RunUp(cfg.DatabaseURL, migration.Source{
			FS:   data.Migrations,
			Dir:  data.MigrationsDir,
			Path: cfg.MigrationPath,
		}, log), "run migrations")
	}

	// ── 3b. Redis ─────────────────────────────────────────────────────────
	var rdb *goredis.Client
	if cfg.NeedsRedis() {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_error", slog.Any("error", cerr))
			}
		}()

		health.CheckCache = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	}

	// ── 5. Collaborators ──────────────────────────────────────────────────
	signer, err := sec.NewTokenService(cfg.TokenSecret, constants.TokenIssuer)
	must(log, err, "initialize token service")

	var directory identity.Directory = identity.NewMemoryDirectory()
	if cfg.IdentityBackend == config.BackendPostgres {
		directory = identity.NewPostgresDirectory(pool)
	}

	var tokens identity.TokenCache = identity.NewMemoryTokenCache()
	if cfg.TokenCache == config.BackendRedis {
		tokens = identity.NewRedisTokenCache(rdb)
	}

	var docs docstore.Store = docstore.NewMemoryStore()
	switch cfg.DocstoreBackend {
	case config.BackendPostgres:
		docs = docstore.NewPostgresStore(pool)
	case config.BackendRedis:
		docs = docstore.NewRedisStore(rdb)
	}

	provider := identity.NewService(directory, tokens, signer,
		identity.WithLogger(log),
		identity.WithTokenTTL(cfg.TokenTTL),
	)

	// Each browser tab gets its own provider client, session, and roster view.
	registry := session.NewRegistry(func(id string) *session.Tab {
		client := provider.Client(id)
		tabLog := log.With(slog.String("tab_id", id))
		store := session.New(client, docs,
			session.WithLogger(tabLog),
			session.WithProfileCollection(cfg.ProfileCollection),
		)
		engine := roster.NewEngine(docs, cfg.ProfileCollection,
			roster.WithLogger(tabLog),
			roster.WithFetchTimeout(cfg.RosterFetchTimeout),
		)
		return session.NewTab(id, store, engine, client.Close)
	},
		session.WithIdleTTL(cfg.TabIdleTTL),
		session.WithMaxTabs(cfg.MaxTabs),
		session.WithRegistryLogger(log),
	)
	defer registry.Close()

	// ── 6. Views & Handlers ───────────────────────────────────────────────
	renderer, err := view.New(view.WithLogger(log))
	must(log, err, "parse placeholder view")
	renderer.Warm()

	liveness, readiness := api.NewHealthHandlers(health, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth: auth.NewHandler(renderer, auth.Paths{
			Login:   cfg.LoginPath,
			Landing: cfg.LandingPath,
		}, cfg.SignInEchoWait),
		Roster: roster.NewHandler(api.TabEngine, api.TabViewer, renderer),
		Views:  renderer,
	}

	// Background loops (rate-limit cleanup, idle tab sweep) stop with this context.
	runCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	go registry.Run(runCtx, constants.TabSweepInterval)

	server := api.NewServer(runCtx, cfg, log, registry, handlers)

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
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
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

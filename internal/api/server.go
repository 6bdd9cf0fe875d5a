// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
page and JSON handlers into a runnable [http.Server].

Architecture:

  - Every route is declared once in the route table with its access rule.
  - Health probes sit outside the browser-tab middleware and never create tabs.
  - Only this package and cmd/web are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/roster/internal/auth"
	"github.com/taibuivan/roster/internal/guard"
	"github.com/taibuivan/roster/internal/identity"
	"github.com/taibuivan/roster/internal/platform/config"
	"github.com/taibuivan/roster/internal/platform/constants"
	"github.com/taibuivan/roster/internal/platform/middleware"
	"github.com/taibuivan/roster/internal/roster"
	"github.com/taibuivan/roster/internal/session"
	"github.com/taibuivan/roster/internal/view"
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

// Handlers groups the handler sets mounted by the router.
type Handlers struct {
	// Liveness is the /health handler. It always returns 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. It returns 200 when all backends answer.
	Readiness http.HandlerFunc

	// Auth serves the credential pages and the session endpoint.
	Auth *auth.Handler

	// Roster serves the account list.
	Roster *roster.Handler

	// Views renders the placeholder and the not-found page.
	Views *view.Renderer
}

// # Route Table

// access is the guard a route sits behind.
type access uint8

const (
	public access = iota
	anonymousOnly
	signedIn
	signedInJSON
)

type route struct {
	method    string
	pattern   string
	access    access
	throttled bool
	handler   http.HandlerFunc
}

func routes(h Handlers) []route {
	return []route{
		{method: http.MethodGet, pattern: "/", access: signedIn, handler: h.Auth.Index},
		{method: http.MethodGet, pattern: "/welcome", access: signedIn, handler: h.Auth.Welcome},
		{method: http.MethodGet, pattern: "/users", access: signedIn, handler: h.Roster.Page},
		{method: http.MethodPost, pattern: "/auth/logout", access: signedIn, handler: h.Auth.Logout},

		{method: http.MethodGet, pattern: "/auth/login", access: anonymousOnly, handler: h.Auth.LoginForm},
		{method: http.MethodPost, pattern: "/auth/login", access: anonymousOnly, throttled: true, handler: h.Auth.Login},
		{method: http.MethodGet, pattern: "/auth/register", access: anonymousOnly, handler: h.Auth.RegisterForm},
		{method: http.MethodPost, pattern: "/auth/register", access: anonymousOnly, throttled: true, handler: h.Auth.Register},

		{method: http.MethodGet, pattern: "/api/v1/session", access: public, handler: h.Auth.Session},
		{method: http.MethodGet, pattern: "/api/v1/users", access: signedInJSON, handler: h.Roster.API},
	}
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers every route of the table.
//
// ctx bounds the background cleanup of the rate limiters.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, tabs middleware.TabRegistry, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.RateLimit(ctx, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	r.NotFound(func(writer http.ResponseWriter, request *http.Request) {
		h.Views.Render(writer, request, http.StatusNotFound, view.NotFound, view.Page{
			Title: "Not found",
			User:  TabViewer(request),
			Next:  request.URL.Path,
		})
	})

	credentials := middleware.RateLimit(ctx, constants.CredentialRateLimitRPS, constants.CredentialRateLimitBurst)
	guards := map[access]func(http.Handler) http.Handler{
		anonymousOnly: guard.Middleware(guard.RequireAnonymous{LandingPath: cfg.LandingPath}, tabStore, guard.Options{
			Wait:    cfg.GuardResolveWait,
			Pending: http.HandlerFunc(h.Views.Loading),
		}),
		signedIn: guard.Middleware(guard.RequireAuth{LoginPath: cfg.LoginPath}, tabStore, guard.Options{
			Wait:    cfg.GuardResolveWait,
			Pending: http.HandlerFunc(h.Views.Loading),
		}),
		signedInJSON: guard.Middleware(guard.RequireAuth{LoginPath: cfg.LoginPath}, tabStore, guard.Options{
			Wait:   cfg.GuardResolveWait,
			Reject: guard.RejectJSON,
		}),
	}

	// # Application Routes
	// Everything below belongs to a browser tab.
	r.Group(func(tabbed chi.Router) {
		tabbed.Use(middleware.BrowserTab(tabs, cfg.CookieSecure))

		for _, entry := range routes(h) {
			var chain []func(http.Handler) http.Handler
			if entry.throttled {
				chain = append(chain, credentials)
			}
			if g, ok := guards[entry.access]; ok {
				chain = append(chain, g)
			}
			tabbed.With(chain...).Method(entry.method, entry.pattern, entry.handler)
		}
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

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Tab Accessors

// TabEngine returns the roster engine of the request's tab.
func TabEngine(request *http.Request) (*roster.Engine, bool) {
	tab := session.TabFrom(request.Context())
	if tab == nil || tab.Roster == nil {
		return nil, false
	}
	return tab.Roster, true
}

// TabViewer returns the signed-in identity of the request's tab, or nil.
func TabViewer(request *http.Request) *identity.Identity {
	store := session.StoreFrom(request.Context())
	if store == nil {
		return nil
	}
	return store.Session().Identity
}

func tabStore(request *http.Request) *session.Store {
	return session.StoreFrom(request.Context())
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

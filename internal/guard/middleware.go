// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/roster/internal/platform/apperr"
	"github.com/taibuivan/roster/internal/platform/ctxutil"
	"github.com/taibuivan/roster/internal/platform/respond"
	"github.com/taibuivan/roster/internal/session"
)

var errNoSession = errors.New("guard: no session bound to request")

// StoreSource returns the session store of the request's tab, or nil.
type StoreSource func(*http.Request) *session.Store

// Options tunes how [Middleware] answers a request it does not allow.
type Options struct {
	// Wait bounds how long an unresolved session is awaited before deciding.
	Wait time.Duration

	// Pending serves GET and HEAD requests decided while the session is
	// unresolved. Other methods, and every request without it, get 503 with
	// Retry-After so a submitted form is not replayed as a GET.
	Pending http.Handler

	// Reject, when set, answers every non-allowed decision instead of the
	// placeholder and redirect.
	Reject func(writer http.ResponseWriter, request *http.Request, decision Decision)
}

/*
Middleware enforces g on every request.

An unresolved session is awaited for up to opts.Wait. Redirects use 303 so
that a guarded POST lands on a GET.
*/
func Middleware(g Guard, source StoreSource, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			store := source(request)
			if store == nil {
				respond.Error(writer, request, apperr.Internal(errNoSession))
				return
			}

			current := store.Session()
			if !current.Resolved() && opts.Wait > 0 {
				ctx, cancel := context.WithTimeout(request.Context(), opts.Wait)
				current, _ = store.WaitFor(ctx, session.Session.Resolved)
				cancel()
			}

			safe := request.Method == http.MethodGet || request.Method == http.MethodHead
			requested := ""
			if safe {
				requested = request.URL.RequestURI()
			}
			decision := g.Decide(current, requested)

			if decision.Outcome == Allow {
				next.ServeHTTP(writer, request)
				return
			}

			ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "guard_blocked",
				slog.String("outcome", decision.Outcome.String()),
				slog.String("status", decision.Status.String()),
				slog.String("path", request.URL.Path),
			)

			switch {
			case opts.Reject != nil:
				opts.Reject(writer, request, decision)
			case decision.Outcome == Pending && opts.Pending != nil && safe:
				opts.Pending.ServeHTTP(writer, request)
			case decision.Outcome == Pending:
				writer.Header().Set("Retry-After", "1")
				http.Error(writer, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			default:
				http.Redirect(writer, request, decision.Location, http.StatusSeeOther)
			}
		})
	}
}

// RejectJSON answers JSON routes: 503 while pending, 401 when signed out,
// and 403 when signed in on an anonymous-only route.
func RejectJSON(writer http.ResponseWriter, request *http.Request, decision Decision) {
	switch {
	case decision.Outcome == Pending:
		writer.Header().Set("Retry-After", "1")
		respond.Error(writer, request, apperr.SessionPending())
	case decision.Status == session.StatusAnonymous:
		respond.Error(writer, request, apperr.Unauthorized("Sign in to continue"))
	default:
		respond.Error(writer, request, apperr.Forbidden("Already signed in"))
	}
}

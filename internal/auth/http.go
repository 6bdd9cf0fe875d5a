// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth serves the sign-in, sign-up, and sign-out pages.

Handlers talk only to the session store of the request's tab. After a
successful credential call they wait, up to a bound, for the provider to
report the change, so the redirect that follows is decided on the new session.
*/
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/roster/internal/guard"
	"github.com/taibuivan/roster/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/roster/internal/platform/request"
	"github.com/taibuivan/roster/internal/platform/respond"
	"github.com/taibuivan/roster/internal/session"
	"github.com/taibuivan/roster/internal/view"
)

// Renderer writes an HTML page.
type Renderer interface {
	Render(writer http.ResponseWriter, request *http.Request, status int, name string, page view.Page)
}

// Paths are the navigation targets of the credential flows.
type Paths struct {
	Login   string
	Landing string
}

// Handler implements the credential pages.
type Handler struct {
	renderer Renderer
	paths    Paths
	echoWait time.Duration
}

// NewHandler constructs a new [Handler].
//
// echoWait bounds how long a handler waits for the provider's change event.
func NewHandler(renderer Renderer, paths Paths, echoWait time.Duration) *Handler {
	return &Handler{renderer: renderer, paths: paths, echoWait: echoWait}
}

// Form is the submitted values echoed back into a rejected form.
type Form struct {
	Email     string
	FirstName string
	LastName  string
}

const genericFailure = "Something went wrong. Please try again."

// # Pages

// Index handles GET / by sending the user to the landing view.
func (handler *Handler) Index(writer http.ResponseWriter, request *http.Request) {
	http.Redirect(writer, request, handler.paths.Landing, http.StatusSeeOther)
}

// LoginForm handles GET /auth/login.
func (handler *Handler) LoginForm(writer http.ResponseWriter, request *http.Request) {
	handler.renderer.Render(writer, request, http.StatusOK, view.Login, view.Page{
		Title: "Sign in",
		Next:  guard.SafeNext(requestutil.Next(request), ""),
	})
}

// RegisterForm handles GET /auth/register.
func (handler *Handler) RegisterForm(writer http.ResponseWriter, request *http.Request) {
	handler.renderer.Render(writer, request, http.StatusOK, view.Register, view.Page{
		Title: "Create an account",
		Next:  guard.SafeNext(requestutil.Next(request), ""),
	})
}

// Welcome handles GET /welcome.
func (handler *Handler) Welcome(writer http.ResponseWriter, request *http.Request) {
	store, ok := handler.store(writer, request)
	if !ok {
		return
	}

	handler.renderer.Render(writer, request, http.StatusOK, view.Welcome, view.Page{
		Title: "Welcome",
		User:  store.Session().Identity,
	})
}

// # Credential Flows

/*
Login handles POST /auth/login.

On success the user lands on the next parameter, if it is a local path, or on
the landing view. A rejected sign-in re-renders the form with 422 and the
provider's message.
*/
func (handler *Handler) Login(writer http.ResponseWriter, request *http.Request) {
	store, ok := handler.store(writer, request)
	if !ok {
		return
	}

	if err := requestutil.ParseForm(writer, request); err != nil {
		handler.renderForm(writer, request, http.StatusBadRequest, view.Login, "", Form{}, err)
		return
	}

	form := Form{Email: requestutil.FormValue(request, "email")}
	password := request.PostFormValue("password")
	next := guard.SafeNext(requestutil.Next(request), "")

	if _, err := store.SignIn(request.Context(), form.Email, password); err != nil {
		handler.renderForm(writer, request, http.StatusUnprocessableEntity, view.Login, next, form, err)
		return
	}

	handler.await(request.Context(), store, session.Session.Authenticated)
	http.Redirect(writer, request, guard.SafeNext(next, handler.paths.Landing), http.StatusSeeOther)
}

/*
Register handles POST /auth/register.

When the account is created but its profile could not be written, the user is
signed in anyway and the welcome view shows the failure.
*/
func (handler *Handler) Register(writer http.ResponseWriter, request *http.Request) {
	store, ok := handler.store(writer, request)
	if !ok {
		return
	}

	if err := requestutil.ParseForm(writer, request); err != nil {
		handler.renderForm(writer, request, http.StatusBadRequest, view.Register, "", Form{}, err)
		return
	}

	form := Form{
		Email:     requestutil.FormValue(request, "email"),
		FirstName: requestutil.FormValue(request, "firstName"),
		LastName:  requestutil.FormValue(request, "lastName"),
	}
	next := guard.SafeNext(requestutil.Next(request), "")

	created, err := store.SignUp(request.Context(), session.SignUpInput{
		Email:     form.Email,
		Password:  request.PostFormValue("password"),
		FirstName: form.FirstName,
		LastName:  form.LastName,
	})

	var credentialError *session.CredentialError
	switch {
	case err == nil:
		handler.await(request.Context(), store, session.Session.Authenticated)
		http.Redirect(writer, request, guard.SafeNext(next, handler.paths.Landing), http.StatusSeeOther)

	case errors.As(err, &credentialError) && credentialError.Code == session.CodeProfileWriteFailed:
		handler.await(request.Context(), store, session.Session.Authenticated)
		handler.renderer.Render(writer, request, http.StatusOK, view.Welcome, view.Page{
			Title: "Welcome",
			User:  &created,
			Flash: credentialError.Message,
		})

	default:
		handler.renderForm(writer, request, http.StatusUnprocessableEntity, view.Register, next, form, err)
	}
}

// Logout handles POST /auth/logout. A failed sign-out keeps the user on the welcome view.
func (handler *Handler) Logout(writer http.ResponseWriter, request *http.Request) {
	store, ok := handler.store(writer, request)
	if !ok {
		return
	}

	if err := store.SignOut(request.Context()); err != nil {
		handler.renderer.Render(writer, request, http.StatusBadGateway, view.Welcome, view.Page{
			Title: "Welcome",
			User:  store.Session().Identity,
			Flash: "Sign out failed. Please try again.",
		})
		return
	}

	handler.await(request.Context(), store, session.Session.Anonymous)
	http.Redirect(writer, request, handler.paths.Login, http.StatusSeeOther)
}

// Session handles GET /api/v1/session with the tab's current session.
func (handler *Handler) Session(writer http.ResponseWriter, request *http.Request) {
	tab, err := requestutil.Tab(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, tab.Session.Session())
}

// # Helpers

func (handler *Handler) store(writer http.ResponseWriter, request *http.Request) (*session.Store, bool) {
	tab, err := requestutil.Tab(request)
	if err != nil {
		ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "auth_tab_missing", slog.Any("error", err))
		http.Error(writer, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	return tab.Session, true
}

// await absorbs the delay between a provider call and its change event.
func (handler *Handler) await(ctx context.Context, store *session.Store, predicate func(session.Session) bool) {
	ctx, cancel := context.WithTimeout(ctx, handler.echoWait)
	defer cancel()

	if _, err := store.WaitFor(ctx, predicate); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "session_echo_timeout",
			slog.String("status", store.Session().Status.String()),
			slog.Duration("wait", handler.echoWait),
		)
	}
}

func (handler *Handler) renderForm(writer http.ResponseWriter, request *http.Request, status int, name, next string, form Form, err error) {
	message := genericFailure

	var credentialError *session.CredentialError
	if errors.As(err, &credentialError) {
		message = credentialError.Message
	} else {
		ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "auth_form_failed",
			slog.String("view", name),
			slog.Any("error", err),
		)
	}

	title := "Sign in"
	if name == view.Register {
		title = "Create an account"
	}

	handler.renderer.Render(writer, request, status, name, view.Page{
		Title: title,
		Error: message,
		Next:  next,
		Data:  form,
	})
}

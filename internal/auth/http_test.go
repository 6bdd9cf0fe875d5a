// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/roster/internal/auth"
	"github.com/taibuivan/roster/internal/docstore"
	"github.com/taibuivan/roster/internal/identity"
	"github.com/taibuivan/roster/internal/platform/sec"
	"github.com/taibuivan/roster/internal/session"
	"github.com/taibuivan/roster/internal/view"
)

type captureRenderer struct {
	status int
	name   string
	page   view.Page
}

func (c *captureRenderer) Render(writer http.ResponseWriter, _ *http.Request, status int, name string, page view.Page) {
	c.status, c.name, c.page = status, name, page
	writer.WriteHeader(status)
}

type failingWriter struct{}

func (failingWriter) WriteDocument(context.Context, string, string, map[string]any) error {
	return errors.New("permission denied")
}

type fixture struct {
	handler  *auth.Handler
	renderer *captureRenderer
	tab      *session.Tab
	docs     *docstore.MemoryStore
}

func newFixture(t *testing.T, docs docstore.Writer) *fixture {
	t.Helper()

	signer, err := sec.NewTokenService("test-secret", "roster.test")
	require.NoError(t, err)
	service := identity.NewService(identity.NewMemoryDirectory(), identity.NewMemoryTokenCache(), signer)
	client := service.Client("tab-1")

	memory := docstore.NewMemoryStore()
	if docs == nil {
		docs = memory
	}
	store := session.New(client, docs)
	tab := session.NewTab("tab-1", store, nil, client.Close)
	t.Cleanup(tab.Close)

	_, err = store.WaitFor(context.Background(), session.Session.Resolved)
	require.NoError(t, err)

	renderer := &captureRenderer{}
	handler := auth.NewHandler(renderer, auth.Paths{Login: "/auth/login", Landing: "/welcome"}, 2*time.Second)
	return &fixture{handler: handler, renderer: renderer, tab: tab, docs: memory}
}

func (f *fixture) do(handler http.HandlerFunc, method, target string, form url.Values) *httptest.ResponseRecorder {
	var request *http.Request
	if form != nil {
		request = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		request = httptest.NewRequest(method, target, nil)
	}
	request = request.WithContext(session.WithTab(request.Context(), f.tab))

	recorder := httptest.NewRecorder()
	handler(recorder, request)
	return recorder
}

func registration(next string) url.Values {
	return url.Values{
		"firstName": {"Ann"},
		"lastName":  {"Lee"},
		"email":     {"ann@example.com"},
		"password":  {"secret1"},
		"next":      {next},
	}
}

/*
TestRegister_SignsInAndWritesProfile verifies the full sign-up flow: redirect,
authenticated session, and the profile document.
*/
func TestRegister_SignsInAndWritesProfile(t *testing.T) {
	f := newFixture(t, nil)

	recorder := f.do(f.handler.Register, http.MethodPost, "/auth/register", registration(""))
	assert.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Equal(t, "/welcome", recorder.Header().Get("Location"))

	current := f.tab.Session.Session()
	require.True(t, current.Authenticated())
	assert.Equal(t, "ann@example.com", current.Identity.Email)

	documents, err := f.docs.ReadAllDocuments(context.Background(), session.DefaultProfileCollection)
	require.NoError(t, err)
	require.Len(t, documents, 1)
	assert.Equal(t, current.Identity.ID, documents[0].Key)
	assert.Equal(t, "Ann", documents[0].Fields["firstName"])
}

func TestRegister_Next(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"/users?page=2", "/users?page=2"},
		{"//evil.example", "/welcome"},
		{"https://evil.example", "/welcome"},
	}

	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			f := newFixture(t, nil)
			recorder := f.do(f.handler.Register, http.MethodPost, "/auth/register", registration(tt.next))
			assert.Equal(t, tt.want, recorder.Header().Get("Location"))
		})
	}
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t, nil)

	form := url.Values{"email": {"not-an-email"}, "password": {"abc"}}
	recorder := f.do(f.handler.Register, http.MethodPost, "/auth/register", form)

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Equal(t, view.Register, f.renderer.name)
	assert.Contains(t, f.renderer.page.Error, "First Name is required")
	assert.Contains(t, f.renderer.page.Error, "Password should be at least 6 characters")
	assert.Equal(t, auth.Form{Email: "not-an-email"}, f.renderer.page.Data)
	assert.True(t, f.tab.Session.Session().Anonymous())
}

func TestRegister_ProfileWriteFailure(t *testing.T) {
	f := newFixture(t, failingWriter{})

	recorder := f.do(f.handler.Register, http.MethodPost, "/auth/register", registration(""))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, view.Welcome, f.renderer.name)
	assert.NotEmpty(t, f.renderer.page.Flash)
	require.NotNil(t, f.renderer.page.User)
	assert.True(t, f.tab.Session.Session().Authenticated())
}

func TestLogin_Flow(t *testing.T) {
	f := newFixture(t, nil)
	f.do(f.handler.Register, http.MethodPost, "/auth/register", registration(""))

	recorder := f.do(f.handler.Logout, http.MethodPost, "/auth/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Equal(t, "/auth/login", recorder.Header().Get("Location"))
	assert.True(t, f.tab.Session.Session().Anonymous())

	wrong := url.Values{"email": {"ann@example.com"}, "password": {"nope-nope"}, "next": {"/users"}}
	recorder = f.do(f.handler.Login, http.MethodPost, "/auth/login", wrong)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Equal(t, "The email or password is incorrect.", f.renderer.page.Error)
	assert.Equal(t, "/users", f.renderer.page.Next)

	right := url.Values{"email": {"ann@example.com"}, "password": {"secret1"}, "next": {"/users"}}
	recorder = f.do(f.handler.Login, http.MethodPost, "/auth/login", right)
	assert.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Equal(t, "/users", recorder.Header().Get("Location"))
	assert.True(t, f.tab.Session.Session().Authenticated())
}

func TestLogin_EmptyForm(t *testing.T) {
	f := newFixture(t, nil)

	recorder := f.do(f.handler.Login, http.MethodPost, "/auth/login", url.Values{})
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Equal(t, "Email is required. Password is required.", f.renderer.page.Error)
}

func TestForms_KeepSafeNext(t *testing.T) {
	f := newFixture(t, nil)

	f.do(f.handler.LoginForm, http.MethodGet, "/auth/login?next=%2Fusers", nil)
	assert.Equal(t, view.Login, f.renderer.name)
	assert.Equal(t, "/users", f.renderer.page.Next)

	f.do(f.handler.RegisterForm, http.MethodGet, "/auth/register?next=%2F%2Fevil.example", nil)
	assert.Equal(t, view.Register, f.renderer.name)
	assert.Empty(t, f.renderer.page.Next)
}

func TestIndex_RedirectsToLanding(t *testing.T) {
	f := newFixture(t, nil)

	recorder := f.do(f.handler.Index, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Equal(t, "/welcome", recorder.Header().Get("Location"))
}

func TestSession_JSON(t *testing.T) {
	f := newFixture(t, nil)

	recorder := f.do(f.handler.Session, http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "anonymous", body.Data.Status)
}

func TestHandlers_WithoutTab(t *testing.T) {
	renderer := &captureRenderer{}
	handler := auth.NewHandler(renderer, auth.Paths{Login: "/auth/login", Landing: "/welcome"}, time.Second)

	recorder := httptest.NewRecorder()
	handler.Welcome(recorder, httptest.NewRequest(http.MethodGet, "/welcome", nil))
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

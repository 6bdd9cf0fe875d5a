// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package view_test

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/roster/internal/identity"
	"github.com/taibuivan/roster/internal/view"
)

func brokenFS() fstest.MapFS {
	return fstest.MapFS{
		"templates/layout.html":  {Data: []byte(`{{define "layout"}}<main>{{template "content" .}}</main>{{end}}`)},
		"templates/loading.html": {Data: []byte(`{{define "content"}}Loading…{{end}}`)},
		"templates/login.html":   {Data: []byte(`{{define "content"}}{{.Title`)},
	}
}

/*
TestRenderer_ReadyPage verifies that a parsed page is rendered with its status
and the signed-in user in the layout.
*/
func TestRenderer_ReadyPage(t *testing.T) {
	renderer, err := view.New(view.WithLoadWait(5 * time.Second))
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/welcome", nil)
	renderer.Render(recorder, request, http.StatusOK, view.Welcome, view.Page{
		Title: "Welcome",
		User:  &identity.Identity{ID: "u1", Email: "ann@example.com"},
	})

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, recorder.Body.String(), "ann@example.com")
	assert.Contains(t, recorder.Body.String(), "Sign out")
	assert.Equal(t, view.Ready, renderer.State(view.Welcome))
}

func TestRenderer_FormError(t *testing.T) {
	renderer, err := view.New(view.WithLoadWait(5 * time.Second))
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	renderer.Render(recorder, request, http.StatusUnprocessableEntity, view.Login, view.Page{
		Title: "Sign in",
		Error: "Wrong password.",
		Next:  "/users",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Wrong password.")
	assert.Contains(t, recorder.Body.String(), `value="/users"`)
	assert.NotContains(t, recorder.Body.String(), "Sign out")
}

/*
TestRenderer_FailedParse verifies that a page whose parse failed keeps showing
the placeholder and never errors to the user.
*/
func TestRenderer_FailedParse(t *testing.T) {
	renderer, err := view.New(view.WithFS(brokenFS()), view.WithLoadWait(5*time.Second))
	require.NoError(t, err)

	for range 2 {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/auth/login?next=%2Fusers", nil)
		renderer.Render(recorder, request, http.StatusOK, view.Login, view.Page{Title: "Sign in"})

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Loading…")
		assert.Equal(t, "1; url=/auth/login?next=%2Fusers", recorder.Header().Get("Refresh"))
	}
	assert.Equal(t, view.Failed, renderer.State(view.Login))
}

/*
TestRenderer_PostWaitsForPage verifies that a form result is rendered even
when the page is still loading past the load wait.
*/
func TestRenderer_PostWaitsForPage(t *testing.T) {
	renderer, err := view.New(view.WithLoadWait(time.Nanosecond))
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	renderer.Render(recorder, request, http.StatusUnprocessableEntity, view.Login, view.Page{
		Title: "Sign in",
		Error: "Wrong password.",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Wrong password.")
	assert.Empty(t, recorder.Header().Get("Refresh"))
}

/*
TestRenderer_PostFailedParse verifies that a form result for a page that
cannot load is answered with 503 instead of a refreshing placeholder.
*/
func TestRenderer_PostFailedParse(t *testing.T) {
	renderer, err := view.New(view.WithFS(brokenFS()), view.WithLoadWait(5*time.Second))
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	renderer.Render(recorder, request, http.StatusUnprocessableEntity, view.Login, view.Page{Error: "Wrong password."})

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Equal(t, "1", recorder.Header().Get("Retry-After"))
	assert.Empty(t, recorder.Header().Get("Refresh"))
}

func TestRenderer_MissingPlaceholder(t *testing.T) {
	_, err := view.New(view.WithFS(fstest.MapFS{}))
	assert.Error(t, err)
}

func TestRenderer_UnknownPage(t *testing.T) {
	renderer, err := view.New()
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	renderer.Render(recorder, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "missing", view.Page{})

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, view.Failed, renderer.State("missing"))
}

/*
TestLoader_States walks a loader through NotReady, then Ready, and checks that
a failing loader settles on Failed.
*/
func TestLoader_States(t *testing.T) {
	release := make(chan struct{})
	loader := view.NewLoader("slow", func() (*template.Template, error) {
		<-release
		return template.New("slow").Parse("ok")
	})
	assert.Equal(t, view.NotReady, loader.State())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Equal(t, view.NotReady, loader.Wait(ctx))

	close(release)
	assert.Equal(t, view.Ready, loader.Wait(context.Background()))

	tmpl, err := loader.Template()
	require.NoError(t, err)
	assert.NotNil(t, tmpl)

	failing := view.NewLoader("broken", func() (*template.Template, error) {
		return nil, errors.New("parse failed")
	})
	assert.Equal(t, view.Failed, failing.Wait(context.Background()))
	_, err = failing.Template()
	assert.Error(t, err)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "not_ready", view.NotReady.String())
	assert.Equal(t, "ready", view.Ready.String())
	assert.Equal(t, "failed", view.Failed.String())
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/roster/internal/platform/constants"
	"github.com/taibuivan/roster/internal/platform/ctxutil"
	"github.com/taibuivan/roster/internal/platform/middleware"
	"github.com/taibuivan/roster/internal/session"
)

var ok = http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
	writer.WriteHeader(http.StatusNoContent)
})

func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetRequestID(request.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, recorder.Header().Get(constants.HeaderXRequestID))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRequestID, "upstream-id")
	handler.ServeHTTP(httptest.NewRecorder(), request)
	assert.Equal(t, "upstream-id", seen)
}

func TestRateLimiter(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.5, 2)
	handler := limiter.Handler(ok)

	codes := make([]int, 0, 3)
	for range 3 {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
		codes = append(codes, recorder.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	other.RemoteAddr = "198.51.100.7:4242"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, other)
	assert.Equal(t, http.StatusNoContent, recorder.Code, "buckets are per client")

	assert.Zero(t, limiter.Sweep(), "fresh clients are kept")
}

func TestRateLimiter_RetryAfter(t *testing.T) {
	handler := middleware.NewRateLimiter(0.5, 1).Handler(ok)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, "2", recorder.Header().Get(constants.HeaderRetryAfter))
}

func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery(slog.Default())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "INTERNAL_SERVER_ERROR")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"host_port", "192.0.2.1:1234", nil, "192.0.2.1"},
		{"bare_host", "192.0.2.8", nil, "192.0.2.8"},
		{"ignores_real_ip", "192.0.2.1:1234", map[string]string{constants.HeaderXRealIP: "203.0.113.9"}, "192.0.2.1"},
		{"ignores_forwarded_for", "192.0.2.1:1234", map[string]string{constants.HeaderXForwardedFor: "203.0.113.5"}, "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = tt.remoteAddr
			for key, value := range tt.headers {
				request.Header.Set(key, value)
			}
			assert.Equal(t, tt.want, middleware.ClientIP(request))
		})
	}
}

/*
TestRateLimiter_SpoofedHeaders verifies that rotating proxy headers from one
remote address share a single bucket.
*/
func TestRateLimiter_SpoofedHeaders(t *testing.T) {
	handler := middleware.NewRateLimiter(0.1, 1).Handler(ok)

	passed := 0
	for i := range 20 {
		request := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		request.RemoteAddr = "192.0.2.1:1234"
		request.Header.Set(constants.HeaderXRealIP, fmt.Sprintf("203.0.113.%d", i))
		request.Header.Set(constants.HeaderXForwardedFor, fmt.Sprintf("198.51.100.%d", i))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		if recorder.Code == http.StatusNoContent {
			passed++
		}
	}
	assert.Equal(t, 1, passed)
}

/*
TestRateLimiter_TrustedProxy verifies that behind chi's RealIP the forwarded
client address selects the bucket.
*/
func TestRateLimiter_TrustedProxy(t *testing.T) {
	handler := chimw.RealIP(middleware.NewRateLimiter(0.1, 1).Handler(ok))

	for _, client := range []string{"203.0.113.1", "203.0.113.2"} {
		request := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		request.RemoteAddr = "10.0.0.1:1234"
		request.Header.Set(constants.HeaderXRealIP, client)

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusNoContent, recorder.Code, client)
	}
}

// fakeTabs hands out bare tabs and counts how many were created.
type fakeTabs struct {
	tabs map[string]*session.Tab
}

func (f *fakeTabs) Tab(id string) *session.Tab {
	if tab, found := f.tabs[id]; found {
		return tab
	}
	tab := session.NewTab(id, nil, nil, nil)
	f.tabs[id] = tab
	return tab
}

/*
TestBrowserTab verifies that a request without a valid cookie opens a new tab
and that the cookie brings the same tab back.
*/
func TestBrowserTab(t *testing.T) {
	tabs := &fakeTabs{tabs: make(map[string]*session.Tab)}

	var seen *session.Tab
	handler := middleware.BrowserTab(tabs, true)(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
		seen = session.TabFrom(request.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, constants.TabCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	_, err := uuid.Parse(cookie.Value)
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, cookie.Value, seen.ID)
	first := seen

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: constants.TabCookieName, Value: cookie.Value})
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Same(t, first, seen)
	assert.Empty(t, recorder.Result().Cookies())

	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: constants.TabCookieName, Value: "not-a-uuid"})
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.NotSame(t, first, seen)
	assert.Len(t, tabs.tabs, 2)
}

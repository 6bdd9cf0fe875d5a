// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/taibuivan/roster/internal/platform/constants"
	"github.com/taibuivan/roster/internal/platform/ctxutil"
	"github.com/taibuivan/roster/internal/session"
	"github.com/taibuivan/roster/pkg/uuidv7"
)

// # Browser Tab

// TabRegistry returns the live tab for an id, creating it when absent.
type TabRegistry interface {
	Tab(id string) *session.Tab
}

// BrowserTab binds every request to a browser tab.
//
// The tab id travels in a session cookie. A missing or malformed cookie starts
// a fresh tab, which in turn starts a fresh, unresolved session.
func BrowserTab(tabs TabRegistry, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			tabID := ""
			if cookie, err := request.Cookie(constants.TabCookieName); err == nil {
				tabID, _ = uuidv7.Canonical(cookie.Value)
			}

			if tabID == "" {
				tabID = uuidv7.New()
				http.SetCookie(writer, &http.Cookie{
					Name:     constants.TabCookieName,
					Value:    tabID,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			tab := tabs.Tab(tabID)

			ctx := session.WithTab(request.Context(), tab)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String("tab_id", tabID)))

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

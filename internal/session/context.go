// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"

	"github.com/taibuivan/roster/internal/platform/ctxkey"
)

// WithTab returns a context carrying the request's browser tab.
func WithTab(ctx context.Context, tab *Tab) context.Context {
	return context.WithValue(ctx, ctxkey.KeyTab, tab)
}

// TabFrom returns the tab stored by [WithTab], or nil.
func TabFrom(ctx context.Context) *Tab {
	tab, _ := ctx.Value(ctxkey.KeyTab).(*Tab)
	return tab
}

// StoreFrom returns the session store of the context's tab, or nil.
func StoreFrom(ctx context.Context) *Store {
	if tab := TabFrom(ctx); tab != nil {
		return tab.Session
	}
	return nil
}

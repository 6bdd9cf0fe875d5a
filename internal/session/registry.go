// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/roster/internal/roster"
)

// Tab is everything a single browser tab owns: one session and one roster view.
type Tab struct {
	ID      string
	Session *Store
	Roster  *roster.Engine

	release func()

	mu       sync.Mutex
	lastSeen time.Time
	closed   bool
}

// NewTab assembles a tab. release, if set, runs once when the tab is closed.
func NewTab(id string, store *Store, engine *roster.Engine, release func()) *Tab {
	return &Tab{ID: id, Session: store, Roster: engine, release: release}
}

func (t *Tab) touch(now time.Time) {
	t.mu.Lock()
	t.lastSeen = now
	t.mu.Unlock()
}

func (t *Tab) idleSince(now time.Time) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return now.Sub(t.lastSeen)
}

// Close tears the tab down. It is safe to call more than once.
func (t *Tab) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	if t.Session != nil {
		t.Session.Close()
	}
	if t.release != nil {
		t.release()
	}
}

// # Registry

// TabFactory builds the tab for a new id.
type TabFactory func(id string) *Tab

// Registry owns the live tabs of the process.
type Registry struct {
	factory TabFactory
	idleTTL time.Duration
	maxTabs int
	logger  *slog.Logger
	now     func() time.Time

	mu   sync.Mutex
	tabs map[string]*Tab
}

// RegistryOption configures a [Registry].
type RegistryOption func(*Registry)

// WithIdleTTL sets how long an unused tab survives.
func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) { r.idleTTL = ttl }
}

// WithMaxTabs caps the live tabs. Opening a tab at the cap closes the one
// idle the longest. Zero means no cap.
func WithMaxTabs(n int) RegistryOption {
	return func(r *Registry) { r.maxTabs = max(n, 0) }
}

// WithRegistryLogger sets the logger for tab lifecycle events.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

// WithRegistryClock replaces the clock used for idle tracking.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty registry building tabs with factory.
func NewRegistry(factory TabFactory, opts ...RegistryOption) *Registry {
	registry := &Registry{
		factory: factory,
		idleTTL: 30 * time.Minute,
		logger:  slog.Default(),
		now:     time.Now,
		tabs:    make(map[string]*Tab),
	}
	for _, opt := range opts {
		opt(registry)
	}
	return registry
}

// Tab returns the tab for id, creating it on first sight.
func (r *Registry) Tab(id string) *Tab {
	now := r.now()

	r.mu.Lock()
	tab, ok := r.tabs[id]
	var evicted *Tab
	if !ok {
		if r.maxTabs > 0 && len(r.tabs) >= r.maxTabs {
			evicted = r.stalest(now)
			delete(r.tabs, evicted.ID)
		}
		tab = r.factory(id)
		r.tabs[id] = tab
		r.logger.Debug("tab_opened", slog.String("tab_id", id))
	}
	tab.touch(now)
	r.mu.Unlock()

	if evicted != nil {
		evicted.Close()
		r.logger.Info("tab_evicted_at_capacity", slog.String("tab_id", evicted.ID), slog.Int("max_tabs", r.maxTabs))
	}
	return tab
}

// stalest returns the tab idle the longest. Callers hold mu and ensure tabs is not empty.
func (r *Registry) stalest(now time.Time) *Tab {
	var oldest *Tab
	var longest time.Duration
	for _, tab := range r.tabs {
		if idle := tab.idleSince(now); oldest == nil || idle > longest {
			oldest, longest = tab, idle
		}
	}
	return oldest
}

// Len reports the number of live tabs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs)
}

// Sweep closes tabs idle for longer than the TTL and reports how many it closed.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var idle []*Tab
	for id, tab := range r.tabs {
		if tab.idleSince(now) > r.idleTTL {
			idle = append(idle, tab)
			delete(r.tabs, id)
		}
	}
	r.mu.Unlock()

	for _, tab := range idle {
		tab.Close()
		r.logger.Debug("tab_evicted", slog.String("tab_id", tab.ID))
	}
	return len(idle)
}

// Run sweeps every interval until ctx ends, then closes every tab.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if evicted := r.Sweep(); evicted > 0 {
				r.logger.Info("tabs_evicted", slog.Int("count", evicted), slog.Int("live", r.Len()))
			}
		case <-ctx.Done():
			r.Close()
			return
		}
	}
}

// Close closes and forgets every tab.
func (r *Registry) Close() {
	r.mu.Lock()
	tabs := r.tabs
	r.tabs = make(map[string]*Tab)
	r.mu.Unlock()

	for _, tab := range tabs {
		tab.Close()
	}
}

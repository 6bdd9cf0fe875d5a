// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package view

import (
	"context"
	"html/template"
	"sync"
)

// State is the load state of a view.
type State uint8

const (
	NotReady State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "not_ready"
	}
}

// Loader parses one view on first use, in the background.
//
// A failed parse is final: the view stays Failed for the life of the process.
type Loader struct {
	name string
	load func() (*template.Template, error)

	once sync.Once
	done chan struct{}

	mu    sync.RWMutex
	state State
	tmpl  *template.Template
	err   error
}

// NewLoader creates an idle loader. Nothing is parsed until [Loader.Start].
func NewLoader(name string, load func() (*template.Template, error)) *Loader {
	return &Loader{name: name, load: load, done: make(chan struct{})}
}

// Start begins loading. Only the first call has an effect.
func (l *Loader) Start() {
	l.once.Do(func() {
		go func() {
			defer close(l.done)

			tmpl, err := l.load()

			l.mu.Lock()
			defer l.mu.Unlock()
			if err != nil {
				l.state, l.err = Failed, err
				return
			}
			l.state, l.tmpl = Ready, tmpl
		}()
	})
}

// State reports the current load state without waiting.
func (l *Loader) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Wait starts the loader and blocks until it settles or ctx ends.
func (l *Loader) Wait(ctx context.Context) State {
	l.Start()
	select {
	case <-l.done:
	case <-ctx.Done():
	}
	return l.State()
}

// Template returns the parsed view, or the parse error once Failed.
func (l *Loader) Template() (*template.Template, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tmpl, l.err
}

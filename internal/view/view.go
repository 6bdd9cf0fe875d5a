// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package view renders the HTML pages of the web client.

Each page is parsed lazily by its own [Loader], the first time it is asked
for. Until a page is ready, and forever if its parse failed, the shared
loading placeholder is rendered instead. The placeholder refreshes itself, so
the user lands on the real page as soon as it is available.
*/
package view

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/roster/internal/identity"
	"github.com/taibuivan/roster/internal/platform/ctxutil"
)

//go:embed templates/*.html
var embedded embed.FS

// Page names.
const (
	Login    = "login"
	Register = "register"
	Welcome  = "welcome"
	Users    = "users"
	NotFound = "notfound"
)

// Pages lists every lazily loaded page.
var Pages = []string{Login, Register, Welcome, Users, NotFound}

const (
	layoutFile      = "templates/layout.html"
	placeholderFile = "templates/loading.html"
)

// Page is the data every template receives.
type Page struct {
	Title string
	User  *identity.Identity
	Flash string
	Error string
	Next  string
	Data  any
}

// Renderer owns the page loaders and the placeholder.
type Renderer struct {
	files       fs.FS
	loaders     map[string]*Loader
	placeholder *template.Template
	wait        time.Duration
	refresh     time.Duration
	logger      *slog.Logger
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithFS replaces the embedded templates.
func WithFS(files fs.FS) Option {
	return func(r *Renderer) { r.files = files }
}

// WithLoadWait bounds how long a request waits for a page still loading.
func WithLoadWait(wait time.Duration) Option {
	return func(r *Renderer) { r.wait = wait }
}

// WithLogger sets the logger for parse and execute failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) { r.logger = logger }
}

// New parses the placeholder eagerly and prepares a loader for every page.
func New(opts ...Option) (*Renderer, error) {
	renderer := &Renderer{
		files:   embedded,
		loaders: make(map[string]*Loader, len(Pages)),
		wait:    250 * time.Millisecond,
		refresh: time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(renderer)
	}

	placeholder, err := template.ParseFS(renderer.files, layoutFile, placeholderFile)
	if err != nil {
		return nil, fmt.Errorf("view: parse placeholder: %w", err)
	}
	renderer.placeholder = placeholder

	for _, name := range Pages {
		renderer.loaders[name] = NewLoader(name, renderer.parser(name))
	}
	return renderer, nil
}

func (r *Renderer) parser(name string) func() (*template.Template, error) {
	return func() (*template.Template, error) {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(r.files, layoutFile, "templates/"+name+".html")
		if err != nil {
			r.logger.Error("view_parse_failed", slog.String("view", name), slog.Any("error", err))
			return nil, err
		}
		return tmpl, nil
	}
}

// Warm starts every loader without waiting.
func (r *Renderer) Warm() {
	for _, loader := range r.loaders {
		loader.Start()
	}
}

// State reports the load state of a page.
func (r *Renderer) State(name string) State {
	loader, ok := r.loaders[name]
	if !ok {
		return Failed
	}
	return loader.State()
}

/*
Render writes page name with status, or the placeholder while it is not ready.

GET and HEAD requests wait up to the load wait. Other methods carry a result
the placeholder's refresh would lose, so they wait for the page to settle and
get 503 with Retry-After if it never becomes ready.
*/
func (r *Renderer) Render(writer http.ResponseWriter, request *http.Request, status int, name string, page Page) {
	loader, ok := r.loaders[name]
	if !ok {
		r.fail(writer, request, fmt.Errorf("view: unknown page %q", name))
		return
	}

	if request.Method != http.MethodGet && request.Method != http.MethodHead {
		if loader.Wait(request.Context()) != Ready {
			writer.Header().Set("Retry-After", "1")
			http.Error(writer, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		tmpl, _ := loader.Template()
		r.execute(writer, request, status, tmpl, page)
		return
	}

	ctx, cancel := context.WithTimeout(request.Context(), r.wait)
	defer cancel()

	if loader.Wait(ctx) != Ready {
		r.Loading(writer, request)
		return
	}

	tmpl, _ := loader.Template()
	r.execute(writer, request, status, tmpl, page)
}

// Loading writes the placeholder. It refreshes to the current path with GET.
func (r *Renderer) Loading(writer http.ResponseWriter, request *http.Request) {
	target := request.URL.RequestURI()
	writer.Header().Set("Refresh", fmt.Sprintf("%d; url=%s", int(r.refresh.Seconds()), target))
	writer.Header().Set("Cache-Control", "no-store")
	r.execute(writer, request, http.StatusOK, r.placeholder, Page{Title: "Loading", Next: target})
}

func (r *Renderer) execute(writer http.ResponseWriter, request *http.Request, status int, tmpl *template.Template, page Page) {
	var buffer bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buffer, "layout", page); err != nil {
		r.fail(writer, request, err)
		return
	}

	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	writer.WriteHeader(status)
	_, _ = buffer.WriteTo(writer)
}

func (r *Renderer) fail(writer http.ResponseWriter, request *http.Request, err error) {
	ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "view_render_failed", slog.Any("error", err))
	http.Error(writer, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"seq": func(n int) []int {
		if n <= 0 {
			return nil
		}
		return make([]int, n)
	},
}

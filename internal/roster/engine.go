// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package roster is the table-view engine behind the account list.

An [Engine] fetches a collection once and then answers every view request
locally: filter by email, sort by a column, and cut one page. Nothing is sent
back to the store until the view is reloaded.

	records -> filter -> sort -> page

The filtered and sorted sequence is cached and rebuilt only when the records,
the filter, or the sort change.
*/
package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/taibuivan/roster/internal/docstore"
	"github.com/taibuivan/roster/pkg/pagination"
)

// DefaultFetchTimeout bounds one collection read.
const DefaultFetchTimeout = 10 * time.Second

var (
	// ErrSortKey is returned for a sort column outside [SortKeys].
	ErrSortKey = errors.New("roster: unknown sort key")

	// ErrPageSize is returned for a page size outside the whitelist.
	ErrPageSize = errors.New("roster: page size not allowed")

	// ErrDirection is returned for a direction other than asc or desc.
	ErrDirection = errors.New("roster: unknown sort direction")
)

// FetchError is a failed collection read. The engine shows an empty list.
type FetchError struct {
	Collection string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("roster: fetch %q: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ViewState is the user's current view of the collection.
type ViewState struct {
	Filter    string    `json:"filter"`
	SortKey   SortKey   `json:"sort"`
	Direction Direction `json:"dir"`
	PageIndex int       `json:"page"`
	PageSize  int       `json:"size"`
}

// DefaultViewState sorts by email ascending, ten rows per page.
func DefaultViewState() ViewState {
	return ViewState{SortKey: SortEmail, Direction: Ascending, PageSize: pagination.DefaultSize}
}

// View is a consistent snapshot of the engine.
type View struct {
	State    ViewState
	Page     []Account
	Filtered int
	Total    int
	Pages    int
	Ready    bool
	Err      error
	Sizes    []int

	// EmptyRows pads the last page so the table keeps its height.
	EmptyRows int
}

// Engine is the view engine of one browser tab. It is safe for concurrent use.
type Engine struct {
	reader       docstore.Reader
	collection   string
	logger       *slog.Logger
	sizes        []int
	fetchTimeout time.Duration

	mu      sync.Mutex
	records []Account
	ready   bool
	err     error
	loading chan struct{}
	state   ViewState
	derived []Account
	stale   bool
}

// EngineOption configures an [Engine].
type EngineOption func(*Engine)

// WithLogger sets the logger for fetch failures.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithFetchTimeout bounds each collection read.
func WithFetchTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) {
		if timeout > 0 {
			e.fetchTimeout = timeout
		}
	}
}

// WithPageSizes replaces the page-size whitelist. The first size is the default.
func WithPageSizes(sizes ...int) EngineOption {
	return func(e *Engine) {
		if len(sizes) > 0 {
			e.sizes = slices.Clone(sizes)
			e.state.PageSize = sizes[0]
		}
	}
}

// NewEngine creates an engine over one collection. Nothing is fetched until [Engine.Load].
func NewEngine(reader docstore.Reader, collection string, opts ...EngineOption) *Engine {
	engine := &Engine{
		reader:       reader,
		collection:   collection,
		logger:       slog.Default(),
		sizes:        pagination.Sizes,
		fetchTimeout: DefaultFetchTimeout,
		state:        DefaultViewState(),
		stale:        true,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

/*
Load fetches the collection the first time it is called.

Concurrent callers share one fetch. The fetch is detached from the caller's
context and bounded by the engine's fetch timeout, so a caller that gives up
returns its own context error while the fetch completes for the others.
Later calls return immediately until [Engine.Reload]. A failed fetch leaves
the engine ready with no records and the failure recorded as a [*FetchError],
which is also returned.
*/
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	if e.ready {
		err := e.err
		e.mu.Unlock()
		return err
	}

	wait := e.loading
	if wait == nil {
		wait = make(chan struct{})
		e.loading = wait
		go e.fetch(context.WithoutCancel(ctx), wait)
	}
	e.mu.Unlock()

	select {
	case <-wait:
	case <-ctx.Done():
		return ctx.Err()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// fetch reads the collection and publishes the result, then closes done.
func (e *Engine) fetch(ctx context.Context, done chan struct{}) {
	ctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	documents, fetchErr := e.reader.ReadAllDocuments(ctx, e.collection)

	e.mu.Lock()
	defer e.mu.Unlock()
	defer close(done)

	e.loading = nil
	e.ready = true
	e.stale = true

	if fetchErr != nil {
		e.records = nil
		e.err = &FetchError{Collection: e.collection, Err: fetchErr}
		e.logger.ErrorContext(ctx, "roster_fetch_failed",
			slog.String("collection", e.collection),
			slog.Any("error", fetchErr),
		)
	} else {
		e.records = make([]Account, len(documents))
		for index, document := range documents {
			e.records[index] = decodeAccount(index, document)
		}
		e.err = nil
	}

	e.clampPage()
}

// Reload forgets the fetched records and fetches again. The view state is kept.
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.Lock()
	if e.loading == nil {
		e.ready = false
	}
	e.mu.Unlock()

	return e.Load(ctx)
}

// SetFilter sets the email filter. A changed filter returns to the first page.
func (e *Engine) SetFilter(text string) {
	text = strings.TrimSpace(text)

	e.mu.Lock()
	defer e.mu.Unlock()

	if text == e.state.Filter {
		return
	}
	e.state.Filter = text
	e.state.PageIndex = 0
	e.stale = true
}

// SetSort selects a column. The current column toggles its direction, a new
// column starts ascending. Either way the view returns to the first page.
func (e *Engine) SetSort(key SortKey) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %q", ErrSortKey, key)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if key == e.state.SortKey {
		e.state.Direction = e.state.Direction.Toggle()
	} else {
		e.state.SortKey = key
		e.state.Direction = Ascending
	}
	e.state.PageIndex = 0
	e.stale = true
	return nil
}

// SortBy sets column and direction explicitly. A change returns to the first page.
func (e *Engine) SortBy(key SortKey, dir Direction) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %q", ErrSortKey, key)
	}
	if !dir.Valid() {
		return fmt.Errorf("%w: %q", ErrDirection, dir)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if key == e.state.SortKey && dir == e.state.Direction {
		return nil
	}
	e.state.SortKey = key
	e.state.Direction = dir
	e.state.PageIndex = 0
	e.stale = true
	return nil
}

// SetPage moves to a zero-based page, clamped to the pages that exist.
func (e *Engine) SetPage(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.PageIndex = max(index, 0)
	e.clampPage()
}

// SetPageSize changes the rows per page and returns to the first page.
func (e *Engine) SetPageSize(size int) error {
	if !slices.Contains(e.sizes, size) {
		return fmt.Errorf("%w: %d", ErrPageSize, size)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.PageSize = size
	e.state.PageIndex = 0
	return nil
}

// State returns the current view state.
func (e *Engine) State() ViewState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// View returns the current page and counts.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	derived := e.derive()
	start, end := pagination.Window(e.state.PageIndex, e.state.PageSize, len(derived))

	view := View{
		State:    e.state,
		Page:     slices.Clone(derived[start:end]),
		Filtered: len(derived),
		Total:    len(e.records),
		Pages:    pagination.LastIndex(e.state.PageSize, len(derived)) + 1,
		Ready:    e.ready,
		Err:      e.err,
		Sizes:    e.sizes,
	}
	view.EmptyRows = e.state.PageSize - len(view.Page)
	if len(derived) == 0 {
		view.EmptyRows = 0
	}
	return view
}

// derive rebuilds the filtered and sorted sequence when stale. Callers hold mu.
func (e *Engine) derive() []Account {
	if !e.stale {
		return e.derived
	}

	filtered := e.records
	if e.state.Filter != "" {
		folder := cases.Fold()
		needle := folder.String(e.state.Filter)

		filtered = make([]Account, 0, len(e.records))
		for _, account := range e.records {
			if strings.Contains(folder.String(account.Email), needle) {
				filtered = append(filtered, account)
			}
		}
	} else {
		filtered = slices.Clone(filtered)
	}

	key, dir := e.state.SortKey, e.state.Direction
	slices.SortStableFunc(filtered, func(a, b Account) int { return Compare(a, b, key, dir) })

	e.derived = filtered
	e.stale = false
	return e.derived
}

// clampPage keeps the page index inside the filtered sequence. Callers hold mu.
func (e *Engine) clampPage() {
	last := pagination.LastIndex(e.state.PageSize, len(e.derive()))
	if e.state.PageIndex > last {
		e.state.PageIndex = last
	}
}

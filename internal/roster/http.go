// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package roster

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/taibuivan/roster/internal/identity"
	"github.com/taibuivan/roster/internal/platform/apperr"
	"github.com/taibuivan/roster/internal/platform/ctxutil"
	"github.com/taibuivan/roster/internal/platform/respond"
	"github.com/taibuivan/roster/internal/view"
	"github.com/taibuivan/roster/pkg/pagination"
)

// Query parameters understood by the account list.
const (
	ParamReload = "reload"
	ParamFilter = "q"
	ParamSort   = "sort"
	ParamDir    = "dir"
	ParamSize   = "size"
	ParamPage   = "page"
)

var errNoEngine = errors.New("roster: no engine bound to request")

// EngineSource returns the engine of the request's browser tab.
type EngineSource func(*http.Request) (*Engine, bool)

// ViewerSource returns the signed-in identity of the request, or nil.
type ViewerSource func(*http.Request) *identity.Identity

// Renderer writes an HTML page.
type Renderer interface {
	Render(writer http.ResponseWriter, request *http.Request, status int, name string, page view.Page)
}

// Handler serves the account list as a page and as JSON.
type Handler struct {
	engines  EngineSource
	viewer   ViewerSource
	renderer Renderer
}

// NewHandler constructs a new [Handler].
func NewHandler(engines EngineSource, viewer ViewerSource, renderer Renderer) *Handler {
	return &Handler{engines: engines, viewer: viewer, renderer: renderer}
}

// # Page

// Column is one sortable table header.
type Column struct {
	Key    SortKey
	Label  string
	URL    string
	Active bool
	Arrow  string
}

// SizeOption is one entry of the rows-per-page selector.
type SizeOption struct {
	Size     int
	URL      string
	Selected bool
}

// Row is an account as the table shows it.
type Row struct {
	Account
	You bool
}

// PageData is what the users template renders.
type PageData struct {
	Filter      string
	Rows        []Row
	Columns     []Column
	Sizes       []SizeOption
	PageNumber  int
	Pages       int
	From        int
	To          int
	Filtered    int
	Total       int
	PrevURL     string
	NextURL     string
	ReloadURL   string
	EmptyRows   int
	FetchFailed bool
}

var columns = []struct {
	key   SortKey
	label string
}{
	{SortEmail, "Email"},
	{SortDisplayName, "Name"},
	{SortUID, "User ID"},
	{SortSignupTime, "Signup Time"},
}

/*
Page handles GET /users.

Each query parameter is an action on the tab's engine, applied in order:
reload, filter, sort, size, page. A sort on the current column toggles its
direction. Invalid values are ignored. A request carrying actions is answered
with 303 to the bare path, so reloading the page never repeats them.
*/
func (handler *Handler) Page(writer http.ResponseWriter, request *http.Request) {
	engine, ok := handler.engines(request)
	if !ok {
		ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "roster_engine_missing")
		http.Error(writer, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ctx := request.Context()
	query := request.URL.Query()

	if query.Has(ParamReload) {
		_ = engine.Reload(ctx)
	} else {
		_ = engine.Load(ctx)
	}

	if query.Has(ParamFilter) {
		engine.SetFilter(query.Get(ParamFilter))
	}
	if key := query.Get(ParamSort); key != "" {
		_ = engine.SetSort(SortKey(key))
	}
	if size, ok := pagination.IntParam(request, ParamSize); ok {
		_ = engine.SetPageSize(size)
	}
	if page, ok := pagination.IntParam(request, ParamPage); ok {
		engine.SetPage(page - 1)
	}

	if request.URL.RawQuery != "" {
		http.Redirect(writer, request, request.URL.Path, http.StatusSeeOther)
		return
	}

	viewer := handler.viewer(request)
	data := buildPageData(request.URL.Path, engine.View(), viewer)

	handler.renderer.Render(writer, request, http.StatusOK, view.Users, view.Page{
		Title: "Registered Users",
		User:  viewer,
		Data:  data,
	})
}

func buildPageData(path string, snapshot View, viewer *identity.Identity) PageData {
	state := snapshot.State
	data := PageData{
		Filter:      state.Filter,
		PageNumber:  state.PageIndex + 1,
		Pages:       snapshot.Pages,
		Filtered:    snapshot.Filtered,
		Total:       snapshot.Total,
		ReloadURL:   action(path, ParamReload, "1"),
		EmptyRows:   snapshot.EmptyRows,
		FetchFailed: snapshot.Err != nil,
	}

	for _, account := range snapshot.Page {
		data.Rows = append(data.Rows, Row{Account: account, You: viewer != nil && account.UID == viewer.ID})
	}
	if len(data.Rows) > 0 {
		data.From = state.PageIndex*state.PageSize + 1
		data.To = data.From + len(data.Rows) - 1
	}

	for _, column := range columns {
		header := Column{
			Key:    column.key,
			Label:  column.label,
			URL:    action(path, ParamSort, string(column.key)),
			Active: column.key == state.SortKey,
		}
		if header.Active {
			header.Arrow = "▲"
			if state.Direction == Descending {
				header.Arrow = "▼"
			}
		}
		data.Columns = append(data.Columns, header)
	}

	for _, size := range snapshot.Sizes {
		data.Sizes = append(data.Sizes, SizeOption{
			Size:     size,
			URL:      action(path, ParamSize, strconv.Itoa(size)),
			Selected: size == state.PageSize,
		})
	}

	if state.PageIndex > 0 {
		data.PrevURL = action(path, ParamPage, strconv.Itoa(state.PageIndex))
	}
	if state.PageIndex+1 < snapshot.Pages {
		data.NextURL = action(path, ParamPage, strconv.Itoa(state.PageIndex+2))
	}
	return data
}

func action(path, key, value string) string {
	return path + "?" + url.Values{key: {value}}.Encode()
}

// # JSON

// accountResponse is one account in the API listing.
type accountResponse struct {
	UID         string     `json:"uid,omitempty"`
	Email       string     `json:"email,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
	FirstName   string     `json:"firstName,omitempty"`
	LastName    string     `json:"lastName,omitempty"`
	SignupTime  *time.Time `json:"signupTime,omitempty"`
	Initial     string     `json:"initial"`
	You         bool       `json:"you"`
}

/*
API handles GET /api/v1/users.

It applies the same actions as [Handler.Page] but sets the sort explicitly
with sort and dir, and rejects invalid values.

Returns:
  - 200 with the page and one-based pagination metadata
  - 400 for an unknown sort key, direction, page size, or page
  - 502 when the collection could not be fetched
*/
func (handler *Handler) API(writer http.ResponseWriter, request *http.Request) {
	engine, ok := handler.engines(request)
	if !ok {
		respond.Error(writer, request, apperr.Internal(errNoEngine))
		return
	}

	ctx := request.Context()
	query := request.URL.Query()

	var err error
	if query.Has(ParamReload) {
		err = engine.Reload(ctx)
	} else {
		err = engine.Load(ctx)
	}
	var fetchErr *FetchError
	if err != nil && !errors.As(err, &fetchErr) {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	if err := applyQuery(engine, request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	snapshot := engine.View()
	if snapshot.Err != nil {
		respond.Error(writer, request, apperr.Upstream("The account list could not be loaded", snapshot.Err))
		return
	}

	viewer := handler.viewer(request)
	accounts := make([]accountResponse, 0, len(snapshot.Page))
	for _, account := range snapshot.Page {
		accounts = append(accounts, toResponse(account, viewer))
	}

	state := snapshot.State
	respond.Paginated(writer, accounts, pagination.NewMeta(state.PageIndex+1, state.PageSize, snapshot.Filtered))
}

func applyQuery(engine *Engine, request *http.Request) error {
	query := request.URL.Query()

	if query.Has(ParamFilter) {
		engine.SetFilter(query.Get(ParamFilter))
	}

	if key := query.Get(ParamSort); key != "" {
		dir := Direction(query.Get(ParamDir))
		if dir == "" {
			dir = Ascending
		}
		if err := engine.SortBy(SortKey(key), dir); err != nil {
			return apperr.BadRequest(err.Error())
		}
	}

	if query.Has(ParamSize) {
		size, ok := pagination.IntParam(request, ParamSize)
		if !ok {
			return apperr.BadRequest("size must be an integer")
		}
		if err := engine.SetPageSize(size); err != nil {
			return apperr.BadRequest(err.Error())
		}
	}

	if query.Has(ParamPage) {
		page, ok := pagination.IntParam(request, ParamPage)
		if !ok || page < 1 {
			return apperr.BadRequest("page must be a positive integer")
		}
		engine.SetPage(page - 1)
	}
	return nil
}

func toResponse(account Account, viewer *identity.Identity) accountResponse {
	response := accountResponse{
		UID:         account.UID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		FirstName:   account.FirstName,
		LastName:    account.LastName,
		Initial:     account.Initial(),
		You:         viewer != nil && account.UID == viewer.ID,
	}
	if account.SignupTime.Valid() {
		at := account.SignupTime.Time().UTC()
		response.SignupTime = &at
	}
	return response
}

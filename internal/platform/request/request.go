// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It hides form parsing limits and context lookups behind small helpers so page
and API handlers read the same way.
*/
package requestutil

import (
	"errors"
	"net/http"
	"strings"

	"github.com/taibuivan/roster/internal/platform/apperr"
	"github.com/taibuivan/roster/internal/platform/constants"
	"github.com/taibuivan/roster/internal/session"
)

// maxFormBytes bounds credential form bodies.
const maxFormBytes = 64 << 10

/*
ParseForm reads a url-encoded form body with a size limit.

Returns:
  - error: apperr.BadRequest if the body is malformed or too large
*/
func ParseForm(writer http.ResponseWriter, request *http.Request) error {
	request.Body = http.MaxBytesReader(writer, request.Body, maxFormBytes)
	if err := request.ParseForm(); err != nil {
		return apperr.BadRequest("Malformed form submission")
	}
	return nil
}

// FormValue returns the trimmed value of a posted form field.
func FormValue(request *http.Request, name string) string {
	return strings.TrimSpace(request.PostFormValue(name))
}

// Next returns the raw redirect-back target from the query or the form.
func Next(request *http.Request) string {
	if next := request.URL.Query().Get(constants.NextParam); next != "" {
		return next
	}
	return request.PostFormValue(constants.NextParam)
}

/*
Tab returns the browser tab bound to the request.

Returns:
  - *session.Tab: The tab resolved by the tab middleware
  - error: apperr.Internal if the route was mounted without the tab middleware
*/
func Tab(request *http.Request) (*session.Tab, error) {
	tab := session.TabFrom(request.Context())
	if tab == nil {
		return nil, apperr.Internal(errTabMissing)
	}
	return tab, nil
}

var errTabMissing = errors.New("requestutil: no browser tab in request context")

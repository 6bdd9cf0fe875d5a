// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination provides shared types and helpers for paged list views.
//
// # Overview
//
// It standardizes the page-size whitelist, zero-based page windows, and the
// metadata delivered in the API response envelope.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultSize is the number of items per page if not specified.
	DefaultSize = 10
)

// Sizes is the whitelist of selectable page sizes.
var Sizes = []int{5, 10, 25}

// Window returns the half-open [start, end) slice bounds of page index within
// a collection of total items. A window past the end is clipped (possibly empty).
func Window(index, size, total int) (start, end int) {
	if index < 0 || size <= 0 {
		return 0, 0
	}
	start = index * size
	if start > total {
		start = total
	}
	end = start + size
	if end > total {
		end = total
	}
	return start, end
}

// LastIndex returns the highest valid zero-based page index for total items.
//
// An empty collection still has page 0.
func LastIndex(size, total int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total - 1) / size
}

// Meta is the pagination metadata included in API list responses.
//
// Page is one-based for API consumers.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewMeta constructs pagination metadata for a response.
//
// It automatically calculates the TotalPages based on the total count and limit.
func NewMeta(page, limit, total int) Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// IntParam parses a single integer query parameter.
//
// The boolean is false when the parameter is absent or malformed.
func IntParam(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}

	return n, true
}

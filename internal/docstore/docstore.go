// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package docstore is the document store: named collections of keyed,
schemaless documents.

Writes replace the whole document. Reads return every document of a
collection in key order. A field set to [ServerTimestamp] is replaced by the
backend's own notion of "now" at write time, in the backend's own shape:

  - postgres: {"seconds": n, "nanoseconds": n}
  - redis: epoch milliseconds
  - memory: a [time.Time]

Readers normalise these with pkg/timestamp.
*/
package docstore

import (
	"context"
	"errors"
	"maps"
	"time"
)

// ErrEmptyKey is returned when a document is written without a collection or key.
var ErrEmptyKey = errors.New("docstore: collection and key are required")

// Document is one stored record.
type Document struct {
	Key    string
	Fields map[string]any
}

// Writer creates or replaces documents.
type Writer interface {
	WriteDocument(ctx context.Context, collection, key string, fields map[string]any) error
}

// Reader lists collections.
type Reader interface {
	ReadAllDocuments(ctx context.Context, collection string) ([]Document, error)
}

// Store is a full document store backend.
type Store interface {
	Writer
	Reader
}

type serverTimestamp struct{}

// ServerTimestamp returns the sentinel resolved to the write time by the backend.
func ServerTimestamp() any { return serverTimestamp{} }

// IsServerTimestamp reports whether value is the [ServerTimestamp] sentinel.
func IsServerTimestamp(value any) bool {
	_, ok := value.(serverTimestamp)
	return ok
}

// resolve copies fields, replacing top-level sentinels with stamp(now).
func resolve(fields map[string]any, now time.Time, stamp func(time.Time) any) map[string]any {
	resolved := maps.Clone(fields)
	if resolved == nil {
		resolved = make(map[string]any)
	}
	for name, value := range resolved {
		if IsServerTimestamp(value) {
			resolved[name] = stamp(now)
		}
	}
	return resolved
}

func checkKey(collection, key string) error {
	if collection == "" || key == "" {
		return ErrEmptyKey
	}
	return nil
}

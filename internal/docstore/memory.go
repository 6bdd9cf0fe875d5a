// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// MemoryStore is an in-process [Store].
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	now         func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]map[string]any), now: time.Now}
}

func (s *MemoryStore) WriteDocument(_ context.Context, collection, key string, fields map[string]any) error {
	if err := checkKey(collection, key); err != nil {
		return err
	}

	resolved := resolve(fields, s.now(), func(now time.Time) any { return now.UTC() })

	s.mu.Lock()
	defer s.mu.Unlock()

	documents, ok := s.collections[collection]
	if !ok {
		documents = make(map[string]map[string]any)
		s.collections[collection] = documents
	}
	documents[key] = resolved
	return nil
}

func (s *MemoryStore) ReadAllDocuments(_ context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	documents := s.collections[collection]
	keys := slices.Sorted(maps.Keys(documents))

	result := make([]Document, 0, len(keys))
	for _, key := range keys {
		result = append(result, Document{Key: key, Fields: maps.Clone(documents[key])})
	}
	return result, nil
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/roster/internal/platform/constants"
)

// RedisStore implements [Store] with one hash per collection, one JSON field per document.
type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisStore creates a store on client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// WriteDocument replaces a document. Server timestamps are stored as epoch milliseconds.
func (store *RedisStore) WriteDocument(ctx context.Context, collection, key string, fields map[string]any) error {
	if err := checkKey(collection, key); err != nil {
		return err
	}

	payload, err := json.Marshal(resolve(fields, store.now(), millisStamp))
	if err != nil {
		return fmt.Errorf("docstore: encode %s/%s: %w", collection, key, err)
	}

	if err := store.client.HSet(ctx, collectionKey(collection), key, payload).Err(); err != nil {
		return fmt.Errorf("redis_docstore_write_failed: %w", err)
	}
	return nil
}

// ReadAllDocuments lists a collection in key order.
func (store *RedisStore) ReadAllDocuments(ctx context.Context, collection string) ([]Document, error) {
	entries, err := store.client.HGetAll(ctx, collectionKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis_docstore_read_failed: %w", err)
	}

	documents := make([]Document, 0, len(entries))
	for _, key := range slices.Sorted(maps.Keys(entries)) {
		fields, err := decodeFields([]byte(entries[key]))
		if err != nil {
			return nil, fmt.Errorf("docstore: decode %s/%s: %w", collection, key, err)
		}
		documents = append(documents, Document{Key: key, Fields: fields})
	}
	return documents, nil
}

func millisStamp(now time.Time) any {
	return now.UnixMilli()
}

func collectionKey(collection string) string {
	return constants.RedisPrefixCollection + collection
}

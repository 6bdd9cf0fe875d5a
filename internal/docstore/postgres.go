// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements [Store] on the document table (one jsonb row per document).
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore creates a store backed by pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

/*
WriteDocument upserts a document, replacing all of its fields.

Server timestamps are stored as {"seconds", "nanoseconds"}.
*/
func (store *PostgresStore) WriteDocument(ctx context.Context, collection, key string, fields map[string]any) error {
	if err := checkKey(collection, key); err != nil {
		return err
	}

	const query = `
		INSERT INTO document (collection, key, fields)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, key)
		DO UPDATE SET fields = EXCLUDED.fields, updatedat = now()`

	payload, err := json.Marshal(resolve(fields, store.now(), secondsStamp))
	if err != nil {
		return fmt.Errorf("docstore: encode %s/%s: %w", collection, key, err)
	}

	if _, err := store.pool.Exec(ctx, query, collection, key, string(payload)); err != nil {
		return fmt.Errorf("postgres_docstore_write_failed: %w", err)
	}
	return nil
}

// ReadAllDocuments lists a collection in key order.
func (store *PostgresStore) ReadAllDocuments(ctx context.Context, collection string) ([]Document, error) {
	const query = `
		SELECT key, fields
		FROM document
		WHERE collection = $1
		ORDER BY key`

	rows, err := store.pool.Query(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("postgres_docstore_read_failed: %w", err)
	}
	defer rows.Close()

	var documents []Document
	for rows.Next() {
		var (
			key     string
			payload []byte
		)
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("postgres_docstore_scan_failed: %w", err)
		}

		fields, err := decodeFields(payload)
		if err != nil {
			return nil, fmt.Errorf("docstore: decode %s/%s: %w", collection, key, err)
		}
		documents = append(documents, Document{Key: key, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_docstore_read_failed: %w", err)
	}

	return documents, nil
}

func secondsStamp(now time.Time) any {
	return map[string]any{"seconds": now.Unix(), "nanoseconds": now.Nanosecond()}
}

// decodeFields keeps numbers as [json.Number] so integer seconds stay exact.
func decodeFields(payload []byte) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()

	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = make(map[string]any)
	}
	return fields, nil
}

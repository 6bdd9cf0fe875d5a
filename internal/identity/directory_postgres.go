// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/roster/internal/platform/dberr"
	"github.com/taibuivan/roster/pkg/uuidv7"
)

// PostgresDirectory implements [Directory] on the identity_account table.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresDirectory creates a directory backed by pool.
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

/*
Create persists a new account.

Returns:
  - error: ErrEmailTaken on a duplicate email, otherwise database errors
*/
func (directory *PostgresDirectory) Create(ctx context.Context, account Account) error {
	const query = `
		INSERT INTO identity_account (id, email, passwordhash, displayname, createdat)
		VALUES ($1, $2, $3, $4, $5)`

	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	_, err := directory.pool.Exec(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.DisplayName,
		account.CreatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("postgres_identity_create_failed: %w", err)
	}

	return nil
}

// FindByEmail looks an account up by case-folded email.
func (directory *PostgresDirectory) FindByEmail(ctx context.Context, email string) (Account, error) {
	const query = `
		SELECT id, email, passwordhash, displayname, createdat
		FROM identity_account
		WHERE lower(email) = lower($1)`

	return directory.findOne(ctx, query, email)
}

// FindByID looks an account up by id.
func (directory *PostgresDirectory) FindByID(ctx context.Context, id string) (Account, error) {
	if _, ok := uuidv7.Canonical(id); !ok {
		return Account{}, ErrAccountNotFound
	}

	const query = `
		SELECT id, email, passwordhash, displayname, createdat
		FROM identity_account
		WHERE id = $1`

	return directory.findOne(ctx, query, id)
}

func (directory *PostgresDirectory) findOne(ctx context.Context, query string, argument string) (Account, error) {
	var account Account
	err := directory.pool.QueryRow(ctx, query, argument).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.DisplayName,
		&account.CreatedAt,
	)
	if err != nil {
		if dberr.IsNotFound(err) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("postgres_identity_find_failed: %w", err)
	}

	return account, nil
}

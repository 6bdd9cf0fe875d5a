// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr classifies low-level PostgreSQL errors so that stores can map
// them to their own domain errors without inspecting driver types.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsNotFound reports whether err means the queried row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err is a unique constraint violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	return Code(err) == pgerrcode.UniqueViolation
}

// IsConnection reports whether err is a connection-class failure (SQLSTATE 08xxx)
// or a failure to reach the server at all.
func IsConnection(err error) bool {
	if pgerrcode.IsConnectionException(Code(err)) {
		return true
	}
	var connectError *pgconn.ConnectError
	return errors.As(err, &connectError)
}

// Code returns the SQLSTATE of err, or "" when err is not a server error.
func Code(err error) string {
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		return pgError.Code
	}
	return ""
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package uuidv7 wraps google/uuid to generate time-ordered UUIDv7 values.
//
// Account ids, browser tab ids, and request ids all come from here, so that
// log lines and stored rows sort by creation time.
package uuidv7

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
//
// If the clock sequence cannot be read it falls back to a random UUIDv4.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Canonical parses s as any UUID version and returns its canonical form.
//
// The boolean is false when s is not a UUID.
func Canonical(s string) (string, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity is the identity provider consumed by the session store.

It owns accounts, password verification, and the per-tab signed-in state.
Consumers only see the [Provider] contract: three credential operations plus
an ordered stream of identity changes.

# Ordering

Change events for one [Client] are delivered in emission order from a single
goroutine. Each event is delivered at most once to each active listener and
events are never coalesced.

# Errors

Failures carry a stable [Error.Code] in the "auth/..." namespace together
with a display message. Callers pass both through to the user unchanged.
*/
package identity

import (
	"context"
	"errors"
)

// Identity is the provider's record of a signed-in user.
type Identity struct {
	ID          string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// Listener receives identity changes. A nil identity means signed out.
type Listener func(identity *Identity)

// Provider is the contract the session store depends on.
type Provider interface {
	// CreateAccount registers a new account and signs it in.
	CreateAccount(ctx context.Context, email, password string) (Identity, error)

	// Authenticate signs in an existing account.
	Authenticate(ctx context.Context, email, password string) (Identity, error)

	// SignOut ends the signed-in state.
	SignOut(ctx context.Context) error

	// OnChange registers a listener and returns its unsubscribe function.
	OnChange(listener Listener) (unsubscribe func())
}

// # Error Codes

const (
	CodeInvalidEmail      = "auth/invalid-email"
	CodeWeakPassword      = "auth/weak-password"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeNetwork           = "auth/network-request-failed"
	CodeInvalidArgument   = "auth/invalid-argument"
)

// MinPasswordLength is the shortest password the provider accepts.
const MinPasswordLength = 6

// Error is a provider failure with a stable code and a display message.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func newError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// CodeOf returns the provider code carried by err, or "" for foreign errors.
func CodeOf(err error) string {
	var providerError *Error
	if errors.As(err, &providerError) {
		return providerError.Code
	}
	return ""
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"errors"

	"github.com/taibuivan/roster/internal/identity"
)

// CodeProfileWriteFailed marks a sign-up whose account exists but whose
// profile document could not be written.
const CodeProfileWriteFailed = "profile/write-failed"

// CredentialError is a failed sign-up or sign-in.
//
// Code and Message come from the provider when it produced the failure and
// are shown to the user unchanged.
type CredentialError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *CredentialError) Error() string { return e.Message }

func (e *CredentialError) Unwrap() error { return e.Err }

// SignOutError is a failed sign-out. The session is left as it was.
type SignOutError struct {
	Err error
}

func (e *SignOutError) Error() string {
	return "sign out failed: " + e.Err.Error()
}

func (e *SignOutError) Unwrap() error { return e.Err }

func credentialError(op string, err error) *CredentialError {
	var providerError *identity.Error
	if errors.As(err, &providerError) {
		return &CredentialError{Op: op, Code: providerError.Code, Message: providerError.Message, Err: err}
	}
	return &CredentialError{Op: op, Code: identity.CodeNetwork, Message: err.Error(), Err: err}
}

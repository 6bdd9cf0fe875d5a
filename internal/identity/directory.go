// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/roster/pkg/uuidv7"
)

// ErrAccountNotFound is returned by a [Directory] when no account matches.
var ErrAccountNotFound = errors.New("identity: account not found")

// ErrEmailTaken is returned by a [Directory] when the email is already registered.
var ErrEmailTaken = errors.New("identity: email already registered")

// Account is a stored account including its password hash.
type Account struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity projects the account to its public identity.
func (a Account) Identity() Identity {
	return Identity{ID: a.ID, Email: a.Email, DisplayName: a.DisplayName}
}

// Directory stores accounts. Emails compare case-insensitively.
type Directory interface {
	Create(ctx context.Context, account Account) error
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
}

// NewAccountID returns a time-ordered account id.
func NewAccountID() string {
	return uuidv7.New()
}

// # Memory Directory

// MemoryDirectory is an in-process [Directory].
type MemoryDirectory struct {
	mu      sync.RWMutex
	byID    map[string]Account
	byEmail map[string]string
}

// NewMemoryDirectory creates an empty in-process directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		byID:    make(map[string]Account),
		byEmail: make(map[string]string),
	}
}

func (d *MemoryDirectory) Create(_ context.Context, account Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := strings.ToLower(account.Email)
	if _, taken := d.byEmail[key]; taken {
		return ErrEmailTaken
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	d.byID[account.ID] = account
	d.byEmail[key] = account.ID
	return nil
}

func (d *MemoryDirectory) FindByEmail(_ context.Context, email string) (Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byEmail[strings.ToLower(email)]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return d.byID[id], nil
}

func (d *MemoryDirectory) FindByID(_ context.Context, id string) (Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	account, ok := d.byID[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

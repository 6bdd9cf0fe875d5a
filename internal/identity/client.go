// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/taibuivan/roster/internal/platform/sec"
	"github.com/taibuivan/roster/internal/platform/validate"
)

// CodeInternal reports a provider-side failure unrelated to the input.
const CodeInternal = "auth/internal-error"

// # Service

// Signer issues and verifies identity tokens.
type Signer interface {
	Issue(identityID, email string, ttl time.Duration) (string, error)
	Verify(token string) (*sec.IdentityClaims, error)
}

// Service holds the collaborators shared by every tab's [Client].
type Service struct {
	directory      Directory
	tokens         TokenCache
	signer         Signer
	tokenTTL       time.Duration
	resolveTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// Option configures a [Service].
type Option func(*Service)

// WithLogger sets the logger for provider events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithTokenTTL sets how long a persisted token survives.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.tokenTTL = ttl }
}

// WithResolveTimeout bounds the initial token lookup of a new client.
func WithResolveTimeout(timeout time.Duration) Option {
	return func(s *Service) { s.resolveTimeout = timeout }
}

// NewService creates the shared provider backend.
func NewService(directory Directory, tokens TokenCache, signer Signer, opts ...Option) *Service {
	service := &Service{
		directory:      directory,
		tokens:         tokens,
		signer:         signer,
		tokenTTL:       30 * 24 * time.Hour,
		resolveTimeout: 5 * time.Second,
		logger:         slog.Default(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Client returns a provider bound to one browser tab.
//
// The client starts unresolved and resolves asynchronously from the tab's
// persisted token. Its first event is the restored identity or nil.
func (s *Service) Client(tabID string) *Client {
	client := &Client{
		service:   s,
		tabID:     tabID,
		events:    newDispatcher(),
		listeners: make(map[uint64]*listenerEntry),
	}
	go client.resolve()
	return client
}

// restore maps a persisted token back to its identity.
func (s *Service) restore(ctx context.Context, tabID string) (*Identity, error) {
	token, err := s.tokens.Get(ctx, tabID)
	if err != nil {
		return nil, err
	}

	claims, err := s.signer.Verify(token)
	if err != nil {
		_ = s.tokens.Delete(ctx, tabID)
		return nil, err
	}

	account, err := s.directory.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			_ = s.tokens.Delete(ctx, tabID)
		}
		return nil, err
	}

	identity := account.Identity()
	return &identity, nil
}

// # Client

type listenerEntry struct {
	id     uint64
	fn     Listener
	since  uint64
	active atomic.Bool
}

// Client is the [Provider] of a single browser tab.
type Client struct {
	service *Service
	tabID   string
	events  *dispatcher

	mu        sync.Mutex
	current   *Identity
	seq       uint64
	listeners map[uint64]*listenerEntry
	nextID    uint64
	closed    bool
}

var _ Provider = (*Client)(nil)

/*
OnChange registers listener for identity changes.

A listener registered after the client has resolved first receives the
current identity, then every later change.

Returns:
  - func(): Unsubscribe, safe to call more than once
*/
func (c *Client) OnChange(listener Listener) func() {
	entry := &listenerEntry{fn: listener}
	entry.active.Store(true)

	c.mu.Lock()
	entry.id = c.nextID
	c.nextID++
	entry.since = c.seq
	c.listeners[entry.id] = entry

	if c.seq > 0 {
		snapshot := clone(c.current)
		c.events.enqueue(func() {
			if entry.active.Load() {
				entry.fn(snapshot)
			}
		})
	}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.active.Store(false)
			c.mu.Lock()
			delete(c.listeners, entry.id)
			c.mu.Unlock()
		})
	}
}

// CreateAccount registers an account and signs it in on this tab.
func (c *Client) CreateAccount(ctx context.Context, email, password string) (Identity, error) {
	email = strings.TrimSpace(email)
	if err := checkCredentials(email, password); err != nil {
		return Identity{}, err
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return Identity{}, newError(CodeWeakPassword, "Password should be at least 6 characters.", nil)
	}

	hash, err := sec.HashPassword(password)
	if err != nil {
		return Identity{}, newError(CodeInternal, "An internal error has occurred.", err)
	}

	account := Account{
		ID:           NewAccountID(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    c.service.now(),
	}
	if err := c.service.directory.Create(ctx, account); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return Identity{}, newError(CodeEmailInUse, "The email address is already in use by another account.", err)
		}
		return Identity{}, newError(CodeNetwork, "A network error has occurred. Please try again.", err)
	}

	identity := account.Identity()
	c.signIn(ctx, identity)
	return identity, nil
}

// Authenticate signs an existing account in on this tab.
func (c *Client) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	email = strings.TrimSpace(email)
	if err := checkCredentials(email, password); err != nil {
		return Identity{}, err
	}

	account, err := c.service.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Identity{}, invalidCredential()
		}
		return Identity{}, newError(CodeNetwork, "A network error has occurred. Please try again.", err)
	}
	if !sec.CheckPasswordHash(password, account.PasswordHash) {
		return Identity{}, invalidCredential()
	}

	identity := account.Identity()
	c.signIn(ctx, identity)
	return identity, nil
}

// SignOut forgets the tab's token. On failure no change is emitted.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.service.tokens.Delete(ctx, c.tabID); err != nil {
		return newError(CodeNetwork, "A network error has occurred. Please try again.", err)
	}
	c.emit(nil, false)
	return nil
}

// Close stops event delivery. Pending events are dropped.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.listeners = make(map[uint64]*listenerEntry)
	c.mu.Unlock()

	c.events.close()
}

func (c *Client) signIn(ctx context.Context, identity Identity) {
	token, err := c.service.signer.Issue(identity.ID, identity.Email, c.service.tokenTTL)
	if err == nil {
		err = c.service.tokens.Set(ctx, c.tabID, token, c.service.tokenTTL)
	}
	if err != nil {
		// The tab is still signed in, it just will not survive a restart.
		c.service.logger.WarnContext(ctx, "identity_token_persist_failed",
			slog.String("tab_id", c.tabID),
			slog.Any("error", err),
		)
	}

	c.emit(&identity, false)
}

func (c *Client) resolve() {
	ctx, cancel := context.WithTimeout(context.Background(), c.service.resolveTimeout)
	defer cancel()

	identity, err := c.service.restore(ctx, c.tabID)
	if err != nil && !errors.Is(err, ErrNoToken) {
		c.service.logger.Warn("identity_restore_failed",
			slog.String("tab_id", c.tabID),
			slog.Any("error", err),
		)
	}

	c.emit(identity, true)
}

// emit records identity as current and queues its delivery.
// With initialOnly set it is a no-op once any event has been emitted.
func (c *Client) emit(identity *Identity, initialOnly bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || (initialOnly && c.seq > 0) {
		return
	}

	c.seq++
	c.current = clone(identity)
	seq, snapshot := c.seq, clone(identity)
	c.events.enqueue(func() { c.deliver(seq, snapshot) })
}

func (c *Client) deliver(seq uint64, identity *Identity) {
	c.mu.Lock()
	targets := make([]*listenerEntry, 0, len(c.listeners))
	for _, entry := range c.listeners {
		if entry.since < seq {
			targets = append(targets, entry)
		}
	}
	c.mu.Unlock()

	slices.SortFunc(targets, func(a, b *listenerEntry) int { return cmp.Compare(a.id, b.id) })

	for _, entry := range targets {
		if entry.active.Load() {
			entry.fn(clone(identity))
		}
	}
}

func checkCredentials(email, password string) error {
	if email == "" || password == "" {
		return newError(CodeInvalidArgument, "Email and password are required.", nil)
	}
	if (&validate.Validator{}).Email("email", email).HasErrors() {
		return newError(CodeInvalidEmail, "The email address is badly formatted.", nil)
	}
	return nil
}

func invalidCredential() *Error {
	return newError(CodeInvalidCredential, "The email or password is incorrect.", nil)
}

func clone(identity *Identity) *Identity {
	if identity == nil {
		return nil
	}
	copied := *identity
	return &copied
}

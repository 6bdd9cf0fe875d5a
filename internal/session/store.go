// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/taibuivan/roster/internal/docstore"
	"github.com/taibuivan/roster/internal/identity"
	"github.com/taibuivan/roster/internal/platform/apperr"
	"github.com/taibuivan/roster/internal/platform/validate"
)

// DefaultProfileCollection receives the profile document written on sign-up.
const DefaultProfileCollection = "users"

// SignUpInput is the registration form.
type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type subscriber struct {
	fn     func(Session)
	active atomic.Bool
}

// Store holds the session of one browser tab.
//
// The session value is written only by the provider's dispatch goroutine and
// read by any number of request goroutines.
type Store struct {
	provider   identity.Provider
	docs       docstore.Writer
	collection string
	logger     *slog.Logger

	mu      sync.RWMutex
	current Session

	subMu       sync.Mutex
	subscribers map[uint64]*subscriber
	nextSub     uint64

	unsubscribe func()
	closeOnce   sync.Once
}

// StoreOption configures a [Store].
type StoreOption func(*Store)

// WithLogger sets the logger for transitions and write failures.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithProfileCollection overrides the collection receiving profile documents.
func WithProfileCollection(collection string) StoreOption {
	return func(s *Store) { s.collection = collection }
}

// New creates an Unresolved store and subscribes it to provider.
func New(provider identity.Provider, docs docstore.Writer, opts ...StoreOption) *Store {
	store := &Store{
		provider:    provider,
		docs:        docs,
		collection:  DefaultProfileCollection,
		logger:      slog.Default(),
		subscribers: make(map[uint64]*subscriber),
	}
	for _, opt := range opts {
		opt(store)
	}

	store.unsubscribe = provider.OnChange(store.apply)
	return store
}

// Session returns the current snapshot.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

/*
Subscribe registers fn for every session change, in provider order.

fn runs on the provider's dispatch goroutine and must not block for long.

Returns:
  - func(): Unsubscribe, safe to call more than once
*/
func (s *Store) Subscribe(fn func(Session)) func() {
	entry := &subscriber{fn: fn}
	entry.active.Store(true)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = entry
	s.subMu.Unlock()

	return func() {
		if entry.active.CompareAndSwap(true, false) {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
		}
	}
}

// WaitFor blocks until the session satisfies predicate or ctx ends.
// It returns the matching session, or the current one with ctx's error.
func (s *Store) WaitFor(ctx context.Context, predicate func(Session) bool) (Session, error) {
	matched := make(chan Session, 1)
	unsubscribe := s.Subscribe(func(next Session) {
		if predicate(next) {
			select {
			case matched <- next:
			default:
			}
		}
	})
	defer unsubscribe()

	if current := s.Session(); predicate(current) {
		return current, nil
	}

	select {
	case next := <-matched:
		return next, nil
	case <-ctx.Done():
		return s.Session(), ctx.Err()
	}
}

/*
SignUp creates an account and writes its profile document.

The session is not changed here. It follows when the provider reports the new
identity.

The account and the profile are not written atomically. When the profile write
fails the account still exists and the provider still signs it in, so the
returned identity is valid alongside a [*CredentialError] with code
[CodeProfileWriteFailed].
*/
func (s *Store) SignUp(ctx context.Context, input SignUpInput) (identity.Identity, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	v := &validate.Validator{}
	v.Custom("firstName", input.FirstName == "", "First Name is required").
		Custom("lastName", input.LastName == "", "Last Name is required")
	checkCredentials(v, input.Email, input.Password)
	v.Custom("password", input.Password != "" && len([]rune(input.Password)) < identity.MinPasswordLength,
		"Password should be at least 6 characters")
	if v.HasErrors() {
		return identity.Identity{}, invalidArgument("sign_up", v)
	}

	created, err := s.provider.CreateAccount(ctx, input.Email, input.Password)
	if err != nil {
		return identity.Identity{}, credentialError("sign_up", err)
	}

	profile := map[string]any{
		"uid":         created.ID,
		"email":       created.Email,
		"firstName":   input.FirstName,
		"lastName":    input.LastName,
		"displayName": input.FirstName + " " + input.LastName,
		"signupTime":  docstore.ServerTimestamp(),
	}
	if err := s.docs.WriteDocument(ctx, s.collection, created.ID, profile); err != nil {
		s.logger.ErrorContext(ctx, "profile_write_failed",
			slog.String("uid", created.ID),
			slog.String("collection", s.collection),
			slog.Any("error", err),
		)
		return created, &CredentialError{
			Op:      "sign_up",
			Code:    CodeProfileWriteFailed,
			Message: "Your account was created but your profile could not be saved.",
			Err:     err,
		}
	}

	return created, nil
}

// SignIn authenticates an existing account. The session follows the provider's event.
func (s *Store) SignIn(ctx context.Context, email, password string) (identity.Identity, error) {
	email = strings.TrimSpace(email)

	v := &validate.Validator{}
	checkCredentials(v, email, password)
	if v.HasErrors() {
		return identity.Identity{}, invalidArgument("sign_in", v)
	}

	signedIn, err := s.provider.Authenticate(ctx, email, password)
	if err != nil {
		return identity.Identity{}, credentialError("sign_in", err)
	}
	return signedIn, nil
}

// SignOut ends the signed-in state. On failure the session is unchanged.
func (s *Store) SignOut(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		s.logger.WarnContext(ctx, "sign_out_failed", slog.Any("error", err))
		return &SignOutError{Err: err}
	}
	return nil
}

// Close detaches the store from its provider. It is safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}

		s.subMu.Lock()
		for id, entry := range s.subscribers {
			entry.active.Store(false)
			delete(s.subscribers, id)
		}
		s.subMu.Unlock()
	})
}

// apply is the provider listener: one call per provider event.
func (s *Store) apply(event *identity.Identity) {
	next := fromEvent(event)

	s.mu.Lock()
	previous := s.current
	if !CanTransition(previous.Status, next.Status) {
		s.mu.Unlock()
		s.logger.Error("session_transition_rejected",
			slog.String("from", previous.Status.String()),
			slog.String("to", next.Status.String()),
		)
		return
	}
	s.current = next
	s.mu.Unlock()

	attributes := []any{
		slog.String("from", previous.Status.String()),
		slog.String("to", next.Status.String()),
	}
	if next.Identity != nil {
		attributes = append(attributes, slog.String("uid", next.Identity.ID))
	}
	s.logger.Debug("session_transition", attributes...)

	for _, entry := range s.snapshotSubscribers() {
		if entry.active.Load() {
			entry.fn(next)
		}
	}
}

func (s *Store) snapshotSubscribers() []*subscriber {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ids := make([]uint64, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	entries := make([]*subscriber, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, s.subscribers[id])
	}
	return entries
}

func checkCredentials(v *validate.Validator, email, password string) {
	if email == "" {
		v.Custom("email", true, "Email is required")
	} else {
		v.Email("email", email)
	}
	v.Custom("password", password == "", "Password is required")
}

// invalidArgument reports every failed field, in form order, as one message.
func invalidArgument(op string, v *validate.Validator) *CredentialError {
	err := v.Err()

	var messages []string
	if appError := apperr.As(err); appError != nil {
		for _, detail := range appError.Details {
			messages = append(messages, detail.Message)
		}
	}

	return &CredentialError{
		Op:      op,
		Code:    identity.CodeInvalidArgument,
		Message: strings.Join(messages, ". ") + ".",
		Err:     err,
	}
}

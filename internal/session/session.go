// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session tracks whether a browser tab has a signed-in user.

# State Machine

A [Store] starts Unresolved and moves on identity provider events only:

	Unresolved    -> Authenticated | Anonymous
	Anonymous     -> Authenticated | Anonymous
	Authenticated -> Anonymous     | Authenticated

Nothing re-enters Unresolved. A repeated status is a refresh and is delivered
to subscribers like any other change.

Credential operations never set the session themselves. They return once the
provider call completes, and the session follows when the provider's change
event arrives.
*/
package session

import "github.com/taibuivan/roster/internal/identity"

// Status is the resolution state of a session.
type Status uint8

const (
	StatusUnresolved Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusUnresolved:
		return "unresolved"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// MarshalText renders the status name in JSON payloads.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Session is an immutable snapshot. Identity is set only when Authenticated.
type Session struct {
	Status   Status             `json:"status"`
	Identity *identity.Identity `json:"identity,omitempty"`
}

// Resolved reports whether the provider has answered at least once.
func (s Session) Resolved() bool { return s.Status != StatusUnresolved }

// Authenticated reports whether a user is signed in.
func (s Session) Authenticated() bool { return s.Status == StatusAuthenticated }

// Anonymous reports whether the session resolved to no user.
func (s Session) Anonymous() bool { return s.Status == StatusAnonymous }

var transitions = map[Status][]Status{
	StatusUnresolved:    {StatusAuthenticated, StatusAnonymous},
	StatusAnonymous:     {StatusAuthenticated, StatusAnonymous},
	StatusAuthenticated: {StatusAnonymous, StatusAuthenticated},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// fromEvent maps a provider event to the session it implies.
func fromEvent(id *identity.Identity) Session {
	if id == nil {
		return Session{Status: StatusAnonymous}
	}
	copied := *id
	return Session{Status: StatusAuthenticated, Identity: &copied}
}

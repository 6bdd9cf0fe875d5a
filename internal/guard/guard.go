// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package guard decides whether a request may reach a view, given the session of
its browser tab.

A guard never allows a request while the session is unresolved: the caller
renders a loading placeholder instead. Once resolved, [RequireAuth] lets only
signed-in sessions through and [RequireAnonymous] lets only signed-out ones
through, so for any session exactly one of the two allows.
*/
package guard

import (
	"net/url"
	"strings"

	"github.com/taibuivan/roster/internal/platform/constants"
	"github.com/taibuivan/roster/internal/session"
)

// Outcome is what a guard tells the router to do.
type Outcome uint8

const (
	Allow Outcome = iota
	Pending
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Pending:
		return "pending"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is a guard's answer for one request. Location is set for Redirect.
type Decision struct {
	Outcome  Outcome
	Location string
	Status   session.Status
}

// Guard decides on a session and the requested path (with its query).
type Guard interface {
	Decide(current session.Session, requested string) Decision
}

// RequireAuth admits authenticated sessions and sends anonymous ones to login.
type RequireAuth struct {
	LoginPath string
}

// Decide implements [Guard]. The requested path is carried as the next parameter.
func (g RequireAuth) Decide(current session.Session, requested string) Decision {
	switch current.Status {
	case session.StatusAuthenticated:
		return Decision{Outcome: Allow, Status: current.Status}
	case session.StatusAnonymous:
		location := g.LoginPath
		if requested != "" && SafeNext(requested, "") != "" && !strings.HasPrefix(requested, g.LoginPath) {
			location += "?" + url.Values{constants.NextParam: {requested}}.Encode()
		}
		return Decision{Outcome: Redirect, Location: location, Status: current.Status}
	default:
		return Decision{Outcome: Pending, Status: current.Status}
	}
}

// RequireAnonymous admits anonymous sessions and sends signed-in ones to the landing view.
type RequireAnonymous struct {
	LandingPath string
}

// Decide implements [Guard].
func (g RequireAnonymous) Decide(current session.Session, _ string) Decision {
	switch current.Status {
	case session.StatusAnonymous:
		return Decision{Outcome: Allow, Status: current.Status}
	case session.StatusAuthenticated:
		return Decision{Outcome: Redirect, Location: g.LandingPath, Status: current.Status}
	default:
		return Decision{Outcome: Pending, Status: current.Status}
	}
}

/*
SafeNext returns next if it is a path on this site, otherwise fallback.

Only absolute local paths are accepted. Scheme-relative (//host) and
backslash forms are rejected, as is anything with a scheme or host.
*/
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return fallback
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") || strings.ContainsAny(next, "\r\n") {
		return fallback
	}

	parsed, err := url.Parse(next)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return fallback
	}
	return next
}

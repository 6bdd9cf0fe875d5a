// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package timestamp models the signup-time values found in stored profile documents.

Two storage schemes coexist: the hierarchical document store writes
`{seconds, nanoseconds}` objects, the tree store writes raw epoch milliseconds,
and in-process values may carry their own instant. All of them are represented
by a single tagged [Timestamp] and resolved to a canonical [time.Time] at read time.
*/
package timestamp

import (
	"encoding/json"
	"math"
	"time"
)

// Kind tags the representation a [Timestamp] was decoded from.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindSeconds
	KindMillis
	KindOpaque
)

// Dater is implemented by provider values that know their own instant.
type Dater interface {
	ToDate() time.Time
}

// Timestamp is a tagged union: Seconds | Millis | Opaque.
//
// The zero value is invalid and resolves to the zero [time.Time].
type Timestamp struct {
	kind    Kind
	seconds int64
	nanos   int64
	millis  int64
	opaque  Dater
}

// # Constructors

// Seconds builds a timestamp from epoch seconds plus a nanosecond remainder.
func Seconds(seconds, nanos int64) Timestamp {
	return Timestamp{kind: KindSeconds, seconds: seconds, nanos: nanos}
}

// Millis builds a timestamp from epoch milliseconds.
func Millis(millis int64) Timestamp {
	return Timestamp{kind: KindMillis, millis: millis}
}

// Opaque wraps a provider value that resolves its own instant.
func Opaque(value Dater) Timestamp {
	if value == nil {
		return Timestamp{}
	}
	return Timestamp{kind: KindOpaque, opaque: value}
}

// Instant adapts a [time.Time] to [Dater].
type Instant time.Time

// ToDate implements [Dater].
func (i Instant) ToDate() time.Time { return time.Time(i) }

// # Accessors

// Kind reports which representation the timestamp carries.
func (t Timestamp) Kind() Kind { return t.kind }

// Valid reports whether the timestamp resolves to an instant.
func (t Timestamp) Valid() bool { return t.kind != KindInvalid }

// Time resolves the timestamp to a canonical UTC instant.
func (t Timestamp) Time() time.Time {
	switch t.kind {
	case KindSeconds:
		return time.Unix(t.seconds, t.nanos).UTC()
	case KindMillis:
		return time.UnixMilli(t.millis).UTC()
	case KindOpaque:
		return t.opaque.ToDate().UTC()
	default:
		return time.Time{}
	}
}

// Compare orders two timestamps by their resolved instants.
func (t Timestamp) Compare(other Timestamp) int {
	return t.Time().Compare(other.Time())
}

// Format renders the resolved instant using the given layout.
func (t Timestamp) Format(layout string) string {
	if !t.Valid() {
		return ""
	}
	return t.Time().Format(layout)
}

// # Decoding

// Parse decodes a stored field value into a [Timestamp].
//
// Accepted shapes:
//   - map with "seconds" (or "_seconds") and optional "nanoseconds" → Seconds
//   - JSON numbers and Go integer/float values → Millis
//   - [Dater] and [time.Time] → Opaque
//
// The boolean is false when the value is missing or not a timestamp.
func Parse(value any) (Timestamp, bool) {
	switch v := value.(type) {
	case nil:
		return Timestamp{}, false
	case Timestamp:
		return v, v.Valid()
	case *Timestamp:
		if v == nil {
			return Timestamp{}, false
		}
		return *v, v.Valid()
	case time.Time:
		return Opaque(Instant(v)), true
	case Dater:
		return Opaque(v), true
	case map[string]any:
		return parseObject(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return Millis(n), true
		}
		if f, err := v.Float64(); err == nil {
			return Millis(int64(math.Round(f))), true
		}
		return Timestamp{}, false
	case float64:
		return Millis(int64(math.Round(v))), true
	case int64:
		return Millis(v), true
	case int:
		return Millis(int64(v)), true
	default:
		return Timestamp{}, false
	}
}

func parseObject(object map[string]any) (Timestamp, bool) {
	seconds, ok := integer(object, "seconds", "_seconds")
	if !ok {
		return Timestamp{}, false
	}
	nanos, _ := integer(object, "nanoseconds", "_nanoseconds")
	return Seconds(seconds, nanos), true
}

func integer(object map[string]any, keys ...string) (int64, bool) {
	for _, key := range keys {
		raw, exists := object[key]
		if !exists {
			continue
		}
		switch n := raw.(type) {
		case float64:
			return int64(n), true
		case int64:
			return n, true
		case int:
			return int64(n), true
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return i, true
			}
		}
	}
	return 0, false
}

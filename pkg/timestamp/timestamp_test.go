// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package timestamp_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/roster/pkg/timestamp"
)

type providerValue struct{ at time.Time }

func (p providerValue) ToDate() time.Time { return p.at }

/*
TestParse_Shapes verifies every stored representation resolves to the same instant.
*/
func TestParse_Shapes(t *testing.T) {
	instant := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	tests := []struct {
		name  string
		value any
		kind  timestamp.Kind
	}{
		{"seconds_object", map[string]any{"seconds": float64(instant.Unix()), "nanoseconds": float64(0)}, timestamp.KindSeconds},
		{"admin_seconds_object", map[string]any{"_seconds": instant.Unix()}, timestamp.KindSeconds},
		{"millis_float", float64(instant.UnixMilli()), timestamp.KindMillis},
		{"millis_json_number", json.Number("1741964966000"), timestamp.KindMillis},
		{"opaque_dater", providerValue{at: instant}, timestamp.KindOpaque},
		{"opaque_time", instant, timestamp.KindOpaque},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, ok := timestamp.Parse(tt.value)
			require.True(t, ok)
			assert.Equal(t, tt.kind, ts.Kind())
			assert.True(t, instant.Equal(ts.Time()), "got %s", ts.Time())
		})
	}
}

/*
TestParse_Rejects checks that missing or foreign values are not timestamps.
*/
func TestParse_Rejects(t *testing.T) {
	for _, value := range []any{nil, "2025-01-01", map[string]any{"toDate": 1}, true} {
		_, ok := timestamp.Parse(value)
		assert.False(t, ok, "%v", value)
	}
}

/*
TestCompare_AcrossKinds orders values stored under different schemes.
*/
func TestCompare_AcrossKinds(t *testing.T) {
	early := timestamp.Seconds(50, 0)
	late := timestamp.Millis(100_000)

	assert.Equal(t, -1, early.Compare(late))
	assert.Equal(t, 1, late.Compare(early))
	assert.Equal(t, 0, timestamp.Millis(50_000).Compare(early))
}

func TestFormat_Invalid(t *testing.T) {
	var zero timestamp.Timestamp
	assert.False(t, zero.Valid())
	assert.Empty(t, zero.Format(time.RFC3339))
	assert.False(t, timestamp.Opaque(nil).Valid())
}

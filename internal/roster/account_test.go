// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/roster/internal/docstore"
)

func TestDecodeAccount(t *testing.T) {
	account := decodeAccount(3, docstore.Document{Key: "k", Fields: map[string]any{
		"uid":        "u1",
		"email":      "ada@example.com",
		"firstName":  "Ada",
		"lastName":   "Lovelace",
		"signupTime": map[string]any{"seconds": int64(1741964966), "nanoseconds": 0},
		"extra":      true,
	}})

	assert.Equal(t, "k", account.Key)
	assert.Equal(t, 3, account.index)
	assert.Equal(t, "Ada Lovelace", account.DisplayName)
	assert.True(t, account.Has(SortDisplayName))
	assert.True(t, account.Has(SortSignupTime))
	assert.Equal(t, "Mar 14, 2025, 3:09:26 PM", account.SignupLabel())
}

func TestDecodeAccount_MissingFields(t *testing.T) {
	account := decodeAccount(0, docstore.Document{Key: "k", Fields: map[string]any{
		"email":      42,
		"signupTime": "yesterday",
	}})

	for _, key := range []SortKey{SortEmail, SortUID, SortDisplayName, SortSignupTime} {
		assert.False(t, account.Has(key), key)
	}
	assert.True(t, account.Has(SortID))
	assert.Equal(t, "N/A", account.SignupLabel())
	assert.Equal(t, "", account.Name())
}

func TestAccount_Initial(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"ada@example.com", "A"},
		{"émile@example.com", "É"},
		{"", "U"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Account{Email: tt.email}.Initial())
	}
}

/*
TestCompare_Timestamps verifies that signup times in different stored shapes
order by instant.
*/
func TestCompare_Timestamps(t *testing.T) {
	instant := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	seconds := decodeAccount(0, docstore.Document{Key: "a", Fields: map[string]any{
		"signupTime": map[string]any{"seconds": float64(instant.Unix()), "nanoseconds": float64(0)},
	}})
	millis := decodeAccount(1, docstore.Document{Key: "b", Fields: map[string]any{
		"signupTime": float64(instant.Add(time.Second).UnixMilli()),
	}})
	native := decodeAccount(2, docstore.Document{Key: "c", Fields: map[string]any{
		"signupTime": instant.Add(-time.Second),
	}})

	assert.Negative(t, Compare(native, seconds, SortSignupTime, Ascending))
	assert.Negative(t, Compare(seconds, millis, SortSignupTime, Ascending))
	assert.Positive(t, Compare(seconds, millis, SortSignupTime, Descending))
}

func TestDirection_Toggle(t *testing.T) {
	assert.Equal(t, Descending, Ascending.Toggle())
	assert.Equal(t, Ascending, Descending.Toggle())
	assert.False(t, Direction("up").Valid())
}

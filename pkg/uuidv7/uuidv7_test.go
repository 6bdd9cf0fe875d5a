// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuidv7_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/roster/pkg/uuidv7"
)

func TestNew_IsVersion7(t *testing.T) {
	id, err := uuid.Parse(uuidv7.New())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestNew_Sorts(t *testing.T) {
	first := uuidv7.New()
	second := uuidv7.New()
	assert.Less(t, first, second)
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"0190A0B1-C2D3-7E4F-8A5B-6C7D8E9F0A1B", "0190a0b1-c2d3-7e4f-8a5b-6c7d8e9f0a1b", true},
		{"not-a-uuid", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := uuidv7.Canonical(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

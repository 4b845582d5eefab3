// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		prefix     string
		wantPrefix string
	}{
		{"no-prefix", "", ""},
		{"with-prefix", "n", "n_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := New(tt.prefix)
			require.NoError(err)
			assert.True(strings.HasPrefix(got, tt.wantPrefix))
			assert.Len(got, len(tt.wantPrefix)+DefaultLen)
			assert.Regexp(`^[0-9A-Za-z]+$`, strings.TrimPrefix(got, tt.wantPrefix))
		})
	}
}

func TestNew_Unique(t *testing.T) {
	t.Parallel()
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		got, err := New("")
		require.NoError(t, err)
		_, dup := seen[got]
		require.False(t, dup, "duplicate id %s", got)
		seen[got] = struct{}{}
	}
}

func TestNewWithLen(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	got, err := NewWithLen("", 16)
	require.NoError(err)
	assert.Len(got, 16)

	_, err = NewWithLen("", 0)
	require.Error(err)
	assert.ErrorIs(err, ErrInvalidLength)
}

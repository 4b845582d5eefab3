// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		opt        []Option
		wantPrefix string
		wantLen    int
		wantErr    bool
	}{
		{name: "no-prefix", wantLen: DefaultIDLength},
		{name: "prefix", opt: []Option{WithPrefix("s")}, wantPrefix: "s_", wantLen: DefaultIDLength + 2},
		{name: "length", opt: []Option{WithLength(32)}, wantLen: 32},
		{name: "bad-length", opt: []Option{WithLength(0)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := NewID(tt.opt...)
			if tt.wantErr {
				require.Error(err)
				assert.ErrorIs(err, ErrIdGeneratorFailed)
				return
			}
			require.NoError(err)
			assert.True(strings.HasPrefix(got, tt.wantPrefix))
			assert.Len(got, tt.wantLen)
		})
	}
}

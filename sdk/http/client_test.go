// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewClient(t *testing.T) {
	t.Parallel()
	t.Run("system-ca", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := NewClient("")
		require.NoError(err)
		assert.Equal(DefaultTimeout, c.Timeout)
		tr, ok := c.Transport.(*http.Transport)
		require.True(ok)
		assert.Nil(tr.TLSClientConfig)
	})
	t.Run("bad-pem", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		_, err := NewClient("not a pem")
		require.Error(err)
		assert.ErrorIs(err, ErrInvalidCertificatePem)
	})
}

func TestOidcClientContext(t *testing.T) {
	t.Parallel()
	c := &http.Client{}
	ctx := OidcClientContext(context.Background(), c)
	got, ok := ctx.Value(oauth2.HTTPClient).(*http.Client)
	require.True(t, ok)
	assert.Same(t, c, got)
}

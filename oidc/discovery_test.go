// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testFetcher struct {
	resp  *DiscoveryResponse
	err   error
	calls int32
}

func (f *testFetcher) GetDiscoveryDoc(_ context.Context) (*DiscoveryResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.resp, f.err
}

func TestDecodeDiscoveryResponse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		body      string
		want      *DiscoveryResponse
		wantIsErr error
	}{
		{
			name: "valid",
			body: `{"DiscoveryDoc":{"issuer":"https://idp/realms/minio","authorization_endpoint":"https://idp/auth","scopes_supported":["openid","email"]},"clientId":"abc"}`,
			want: &DiscoveryResponse{
				DiscoveryDoc: &DiscoveryDocument{
					Issuer:                "https://idp/realms/minio",
					AuthorizationEndpoint: "https://idp/auth",
					ScopesSupported:       []string{"openid", "email"},
				},
				ClientID: "abc",
			},
		},
		{
			name: "no-client-id",
			body: `{"DiscoveryDoc":{"issuer":"https://idp"}}`,
			want: &DiscoveryResponse{DiscoveryDoc: &DiscoveryDocument{Issuer: "https://idp"}},
		},
		{name: "missing-doc", body: `{"clientId":"abc"}`, wantIsErr: ErrDiscoveryUnavailable},
		{name: "not-json", body: `<html>`, wantIsErr: ErrDiscoveryUnavailable},
		{name: "wrong-type", body: `{"DiscoveryDoc":"nope"}`, wantIsErr: ErrDiscoveryUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := DecodeDiscoveryResponse(strings.NewReader(tt.body))
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
	_, err := DecodeDiscoveryResponse(nil)
	assert.ErrorIs(t, err, ErrNilParameter)
}

func TestDiscoveryClient_Fetch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tests := []struct {
		name           string
		fetcher        *testFetcher
		want           *Discovery
		wantConfigured bool
		wantIsErr      error
	}{
		{
			name: "complete",
			fetcher: &testFetcher{resp: &DiscoveryResponse{
				DiscoveryDoc: &DiscoveryDocument{
					Issuer:                "https://idp",
					AuthorizationEndpoint: "https://idp/authorize",
					ScopesSupported:       []string{"openid", "groups"},
				},
				ClientID: "abc",
			}},
			want: &Discovery{
				Document: DiscoveryDocument{
					Issuer:                "https://idp",
					AuthorizationEndpoint: "https://idp/authorize",
					ScopesSupported:       []string{"openid", "groups"},
				},
				ClientID: "abc",
			},
			wantConfigured: true,
		},
		{
			name: "default-scopes",
			fetcher: &testFetcher{resp: &DiscoveryResponse{
				DiscoveryDoc: &DiscoveryDocument{Issuer: "https://idp", AuthorizationEndpoint: "https://idp/authorize"},
			}},
			want: &Discovery{
				Document: DiscoveryDocument{
					Issuer:                "https://idp",
					AuthorizationEndpoint: "https://idp/authorize",
					ScopesSupported:       []string{"openid", "profile", "email"},
				},
			},
			wantConfigured: true,
		},
		{
			name: "no-authorization-endpoint",
			fetcher: &testFetcher{resp: &DiscoveryResponse{
				DiscoveryDoc: &DiscoveryDocument{Issuer: "https://idp"},
				ClientID:     "abc",
			}},
			want: &Discovery{
				Document: DiscoveryDocument{Issuer: "https://idp", ScopesSupported: []string{"openid", "profile", "email"}},
				ClientID: "abc",
			},
		},
		{name: "fetch-error", fetcher: &testFetcher{err: errors.New("connection refused")}, wantIsErr: ErrDiscoveryUnavailable},
		{name: "nil-response", fetcher: &testFetcher{}, wantIsErr: ErrDiscoveryUnavailable},
		{name: "nil-doc", fetcher: &testFetcher{resp: &DiscoveryResponse{ClientID: "abc"}}, wantIsErr: ErrDiscoveryUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			c, err := NewDiscoveryClient(tt.fetcher)
			require.NoError(err)
			got, err := c.Fetch(ctx)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				assert.False(Alerts(err))
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
			assert.Equal(tt.wantConfigured, got.Configured())
			if tt.wantConfigured {
				assert.NoError(got.Err())
			} else {
				assert.ErrorIs(got.Err(), ErrConfigurationIncomplete)
			}
		})
	}
}

func TestDiscoveryClient_Cache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := &testFetcher{resp: &DiscoveryResponse{
		DiscoveryDoc: &DiscoveryDocument{Issuer: "https://idp", AuthorizationEndpoint: "https://idp/authorize"},
	}}

	t.Run("no-cache", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		f := *f
		c, err := NewDiscoveryClient(&f)
		require.NoError(err)
		for i := 0; i < 3; i++ {
			_, err := c.Fetch(ctx)
			require.NoError(err)
		}
		assert.Equal(int32(3), atomic.LoadInt32(&f.calls))
	})
	t.Run("cache", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		f := *f
		c, err := NewDiscoveryClient(&f, WithCacheTTL(time.Minute))
		require.NoError(err)
		for i := 0; i < 3; i++ {
			_, err := c.Fetch(ctx)
			require.NoError(err)
		}
		assert.Equal(int32(1), atomic.LoadInt32(&f.calls))

		c.Invalidate()
		_, err = c.Fetch(ctx)
		require.NoError(err)
		assert.Equal(int32(2), atomic.LoadInt32(&f.calls))
	})
	t.Run("errors-not-cached", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		f := &testFetcher{err: errors.New("down")}
		c, err := NewDiscoveryClient(f, WithCacheTTL(time.Minute))
		require.NoError(err)
		_, err = c.Fetch(ctx)
		require.Error(err)
		_, err = c.Fetch(ctx)
		require.Error(err)
		assert.Equal(int32(2), atomic.LoadInt32(&f.calls))
	})
	t.Run("invalid", func(t *testing.T) {
		assert := assert.New(t)
		_, err := NewDiscoveryClient(nil)
		assert.ErrorIs(err, ErrNilParameter)
		_, err = NewDiscoveryClient(f, WithCacheTTL(-time.Second))
		assert.ErrorIs(err, ErrInvalidParameter)
	})
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/caplogin/oidc"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		environ      map[string]string
		want         func(*testing.T, *config)
		wantIsErr    error
		wantProblems int
	}{
		{
			name:    "defaults",
			environ: map[string]string{"CAPLOGIN_ISSUER": "https://idp.example.com/realms/minio"},
			want: func(t *testing.T, c *config) {
				assert := assert.New(t)
				assert.Equal("localhost:9000", c.Addr)
				assert.Equal("code", c.ResponseType)
				assert.True(c.AutoRedirect)
				assert.Equal([]oidc.Alg{oidc.RS256}, c.algs())
				assert.Equal(12*time.Hour, c.SessionTTL)
				assert.Zero(c.DiscoveryCacheTTL)
				assert.Equal("keycloak", c.AccountProfile)
				assert.Equal("caplogin", c.RedisPrefix)
				assert.Empty(c.RedisAddr)
			},
		},
		{
			name: "everything",
			environ: map[string]string{
				"CAPLOGIN_ADDR":                ":8080",
				"CAPLOGIN_ISSUER":              "https://idp.example.com/auth/realms/minio",
				"CAPLOGIN_CLIENT_ID":           "minio-console",
				"CAPLOGIN_CLIENT_SECRET":       "s3cr3t",
				"CAPLOGIN_SIGNING_ALGS":        "RS256,ES256",
				"CAPLOGIN_SCOPES":              "openid,profile",
				"CAPLOGIN_RESPONSE_TYPE":       "id_token",
				"CAPLOGIN_AUTO_REDIRECT":       "false",
				"CAPLOGIN_REDIRECT_URI":        "https://minio.example.com/login/oauth_callback",
				"CAPLOGIN_UI_LOCALES":          "ja,en-US",
				"CAPLOGIN_ACCESS_KEY":          "minio",
				"CAPLOGIN_SECRET_KEY":          "minio123",
				"CAPLOGIN_ACCOUNT_PROFILE":     "keycloak-legacy",
				"CAPLOGIN_ACCOUNT_AUTO_CLICK":  "true",
				"CAPLOGIN_DISCOVERY_CACHE_TTL": "30s",
				"CAPLOGIN_SESSION_TTL":         "1h",
				"CAPLOGIN_REDIS_ADDR":          "localhost:6379",
				"CAPLOGIN_REDIS_DB":            "2",
			},
			want: func(t *testing.T, c *config) {
				assert, require := assert.New(t), require.New(t)
				assert.Equal(":8080", c.Addr)
				assert.Equal([]oidc.Alg{oidc.RS256, oidc.ES256}, c.algs())
				assert.Equal([]string{"openid", "profile"}, c.Scopes)
				assert.False(c.AutoRedirect)
				assert.True(c.AccountAutoClick)
				assert.Equal(30*time.Second, c.DiscoveryCacheTTL)
				assert.Equal(time.Hour, c.SessionTTL)
				assert.Equal(2, c.RedisDB)
				tags, err := c.locales()
				require.NoError(err)
				require.Len(tags, 2)
				assert.Equal(language.Japanese.String(), tags[0].String())
				assert.Equal("en-US", tags[1].String())
			},
		},
		{
			name:         "missing-issuer",
			environ:      map[string]string{},
			wantIsErr:    errInvalidConfig,
			wantProblems: 1,
		},
		{
			name: "every-problem",
			environ: map[string]string{
				"CAPLOGIN_RESPONSE_TYPE":       "token",
				"CAPLOGIN_REDIRECT_URI":        "/login/oauth_callback",
				"CAPLOGIN_ACCESS_KEY":          "minio",
				"CAPLOGIN_ACCOUNT_PROFILE":     "okta",
				"CAPLOGIN_UI_LOCALES":          "not a locale",
				"CAPLOGIN_SESSION_TTL":         "0s",
				"CAPLOGIN_DISCOVERY_CACHE_TTL": "-1s",
			},
			wantIsErr:    errInvalidConfig,
			wantProblems: 8,
		},
		{
			name: "unparsable",
			environ: map[string]string{
				"CAPLOGIN_ISSUER":      "https://idp.example.com",
				"CAPLOGIN_SESSION_TTL": "forever",
			},
			wantIsErr: errInvalidConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := loadConfig(tt.environ)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				if tt.wantProblems > 0 {
					var merr *multierror.Error
					require.True(errors.As(err, &merr))
					assert.Len(merr.Errors, tt.wantProblems)
				}
				return
			}
			require.NoError(err)
			tt.want(t, got)
		})
	}
}

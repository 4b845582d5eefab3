// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package account

import (
	"testing"

	"github.com/hashicorp/caplogin/oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolver(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		profile   Profile
		wantIsErr error
	}{
		{name: "keycloak", profile: Keycloak},
		{name: "legacy", profile: KeycloakLegacy},
		{name: "custom", profile: Profile{Templates: []string{"/account/{realm}"}}},
		{name: "no-templates", profile: Profile{Name: "empty"}, wantIsErr: oidc.ErrInvalidParameter},
		{name: "relative-template", profile: Profile{Templates: []string{"account"}}, wantIsErr: oidc.ErrInvalidParameter},
		{name: "bad-auth-root", profile: Profile{AuthRoot: "auth/", Templates: DefaultTemplates}, wantIsErr: oidc.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := NewResolver(tt.profile)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			assert.NotEmpty(got.profile.DefaultRealm)
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		profile   Profile
		opt       []oidc.Option
		issuer    string
		want      *Link
		wantIsErr error
	}{
		{
			name:    "legacy-with-auth-root",
			profile: KeycloakLegacy,
			issuer:  "https://idp.example.com/auth/realms/minio",
			want: &Link{
				Realm:   "minio",
				BaseURL: "https://idp.example.com/auth",
				Primary: "https://idp.example.com/auth/realms/minio/account/#/security/signingin",
				Alternates: []string{
					"https://idp.example.com/auth/realms/minio/account/#/password",
					"https://idp.example.com/auth/realms/minio/account/",
				},
			},
		},
		{
			name:    "keycloak-keeps-issuer-base",
			profile: Keycloak,
			issuer:  "https://idp.example.com/auth/realms/minio",
			want: &Link{
				Realm:   "minio",
				BaseURL: "https://idp.example.com/auth",
				Primary: "https://idp.example.com/auth/realms/minio/account/#/security/signingin",
				Alternates: []string{
					"https://idp.example.com/auth/realms/minio/account/#/password",
					"https://idp.example.com/auth/realms/minio/account/",
				},
			},
		},
		{
			name:    "legacy-adds-auth-root",
			profile: KeycloakLegacy,
			issuer:  "https://idp.example.com/realms/minio/",
			want: &Link{
				Realm:   "minio",
				BaseURL: "https://idp.example.com/auth",
				Primary: "https://idp.example.com/auth/realms/minio/account/#/security/signingin",
				Alternates: []string{
					"https://idp.example.com/auth/realms/minio/account/#/password",
					"https://idp.example.com/auth/realms/minio/account/",
				},
			},
		},
		{
			name:    "no-realm-segment",
			profile: Keycloak,
			issuer:  "https://accounts.example.com",
			want: &Link{
				Realm:   "master",
				BaseURL: "https://accounts.example.com",
				Primary: "https://accounts.example.com/realms/master/account/#/security/signingin",
				Alternates: []string{
					"https://accounts.example.com/realms/master/account/#/password",
					"https://accounts.example.com/realms/master/account/",
				},
			},
		},
		{
			name:    "auto-click",
			profile: Keycloak,
			opt:     []oidc.Option{WithAutoClick()},
			issuer:  "http://localhost:8080/realms/minio",
			want: &Link{
				Realm:   "minio",
				BaseURL: "http://localhost:8080",
				Primary: "http://localhost:8080/realms/minio/account/?auto_click=true#/security/signingin",
				Alternates: []string{
					"http://localhost:8080/realms/minio/account/#/password",
					"http://localhost:8080/realms/minio/account/",
				},
			},
		},
		{
			name:    "single-template",
			profile: Profile{Templates: []string{"/realms/{realm}/account/"}},
			issuer:  "https://idp.example.com/realms/dev",
			want: &Link{
				Realm:   "dev",
				BaseURL: "https://idp.example.com",
				Primary: "https://idp.example.com/realms/dev/account/",
			},
		},
		{
			name:    "escaped-realm",
			profile: Profile{Templates: []string{"/realms/{realm}/account/"}},
			issuer:  "https://idp.example.com/realms/my%20realm",
			want: &Link{
				Realm:   "my realm",
				BaseURL: "https://idp.example.com",
				Primary: "https://idp.example.com/realms/my%20realm/account/",
			},
		},
		{
			name:    "realm-with-percent",
			profile: Profile{Templates: []string{"/realms/{realm}/account/"}},
			issuer:  "https://idp.example.com/realms/a%2541",
			want: &Link{
				Realm:   "a%41",
				BaseURL: "https://idp.example.com",
				Primary: "https://idp.example.com/realms/a%2541/account/",
			},
		},
		{name: "empty", profile: Keycloak, issuer: " ", wantIsErr: oidc.ErrLinkDerivationFailed},
		{name: "not-a-url", profile: Keycloak, issuer: "::not a url", wantIsErr: oidc.ErrLinkDerivationFailed},
		{name: "no-host", profile: Keycloak, issuer: "idp.example.com/realms/minio", wantIsErr: oidc.ErrLinkDerivationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			r, err := NewResolver(tt.profile, tt.opt...)
			require.NoError(err)
			got, err := r.Resolve(tt.issuer)
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				assert.False(oidc.Alerts(err))
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}

func TestResolver_ChangePassword(t *testing.T) {
	t.Parallel()
	r, err := NewResolver(KeycloakLegacy)
	require.NoError(t, err)

	tests := []struct {
		name     string
		doc      *oidc.DiscoveryDocument
		wantKind TargetKind
		wantURL  string
	}{
		{name: "nil-doc", wantKind: TargetModal},
		{name: "no-issuer", doc: &oidc.DiscoveryDocument{AuthorizationEndpoint: "https://idp/authorize"}, wantKind: TargetModal},
		{name: "bad-issuer", doc: &oidc.DiscoveryDocument{Issuer: "not-a-url"}, wantKind: TargetModal},
		{
			name:     "provider",
			doc:      &oidc.DiscoveryDocument{Issuer: "https://idp.example.com/auth/realms/minio"},
			wantKind: TargetProvider,
			wantURL:  "https://idp.example.com/auth/realms/minio/account/#/security/signingin",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			got := r.ChangePassword(tt.doc)
			assert.Equal(tt.wantKind, got.Kind)
			assert.Equal(tt.wantURL, got.URL)
			if tt.wantKind == TargetProvider {
				assert.NotNil(got.Link)
			}
		})
	}
}

func TestProfileByName(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	p, err := ProfileByName("keycloak-legacy")
	assert.NoError(err)
	assert.Equal("/auth", p.AuthRoot)
	p, err = ProfileByName("")
	assert.NoError(err)
	assert.Equal(Keycloak.Name, p.Name)
	_, err = ProfileByName("okta")
	assert.ErrorIs(err, oidc.ErrInvalidParameter)
}

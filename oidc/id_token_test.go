// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdToken_UnverifiedClaims(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		token     IdToken
		wantNonce string
		wantIsErr error
	}{
		{name: "with-nonce", token: IdToken(TestNonceJWT(t, "n_123")), wantNonce: "n_123"},
		{name: "without-nonce", token: IdToken(TestNonceJWT(t, ""))},
		{name: "empty", token: "", wantIsErr: ErrInvalidParameter},
		{name: "garbage", token: "not.a.jwt", wantIsErr: ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := tt.token.UnverifiedClaims()
			if tt.wantIsErr != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			assert.Equal(tt.wantNonce, got.Nonce)
			assert.Equal("alice@example.com", got.Subject)
		})
	}
}

func TestIdToken_Redacted(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	tk := IdToken("super-secret")
	assert.Equal(RedactedIdToken, tk.String())
	assert.Equal(RedactedIdToken, fmt.Sprintf("%s", tk))
	b, err := json.Marshal(tk)
	require.NoError(err)
	assert.Equal(`"`+RedactedIdToken+`"`, string(b))

	at := AccessToken("super-secret")
	assert.Equal(RedactedAccessToken, at.String())
	b, err = json.Marshal(at)
	require.NoError(err)
	assert.Equal(`"`+RedactedAccessToken+`"`, string(b))

	cs := ClientSecret("super-secret")
	assert.Equal(RedactedClientSecret, cs.String())
	b, err = json.Marshal(cs)
	require.NoError(err)
	assert.Equal(`"`+RedactedClientSecret+`"`, string(b))
}

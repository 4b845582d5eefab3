// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"time"
)

// AccessToken is an oauth access_token.
type AccessToken string

// RedactedAccessToken is the redacted string or json for an oauth access_token
const RedactedAccessToken = "[REDACTED: access_token]"

// String will redact the token
func (t AccessToken) String() string {
	return RedactedAccessToken
}

// MarshalJSON will redact the token
func (t AccessToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedAccessToken)
}

// DefaultTokenExpirySkew is subtracted from the token expiry when checking
// Expired.
const DefaultTokenExpirySkew = 10 * time.Second

// Token is the verified result of a code exchange or an implicit flow
// response.
type Token struct {
	IdToken     IdToken
	AccessToken AccessToken
	Expiry      time.Time

	// Claims of the verified id_token.
	Subject string
	Nonce   string
}

// Expired will return true if the token's id_token has expired.  A token
// with a zero Expiry never expires.
func (t *Token) Expired() bool {
	if t == nil {
		return true
	}
	if t.Expiry.IsZero() {
		return false
	}
	return t.Expiry.Round(0).Before(time.Now().Add(DefaultTokenExpirySkew))
}

// Valid returns true when the token has an id_token and it isn't expired.
func (t *Token) Valid() bool {
	if t == nil || t.IdToken == "" {
		return false
	}
	return !t.Expired()
}

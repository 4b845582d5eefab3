// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"fmt"

	"gopkg.in/square/go-jose.v2/jwt"
)

// IdToken is an oidc id_token.
// See https://openid.net/specs/openid-connect-core-1_0.html#IDToken.
type IdToken string

// RedactedIdToken is the redacted string or json for an oidc id_token
const RedactedIdToken = "[REDACTED: id_token]"

// String will redact the token
func (t IdToken) String() string {
	return RedactedIdToken
}

// MarshalJSON will redact the token
func (t IdToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedIdToken)
}

// IdTokenClaims are the claims read from an id_token before it has been
// verified.
type IdTokenClaims struct {
	Issuer   string           `json:"iss,omitempty"`
	Subject  string           `json:"sub,omitempty"`
	Audience jwt.Audience     `json:"aud,omitempty"`
	Expiry   *jwt.NumericDate `json:"exp,omitempty"`
	Nonce    string           `json:"nonce,omitempty"`
}

// UnverifiedClaims decodes the token's claims WITHOUT checking its
// signature.  They are only good for comparing the nonce before handing the
// token to something which does verify it (Provider.VerifyIdToken).
func (t IdToken) UnverifiedClaims() (*IdTokenClaims, error) {
	const op = "IdToken.UnverifiedClaims"
	if len(t) == 0 {
		return nil, fmt.Errorf("%s: id_token is empty: %w", op, ErrInvalidParameter)
	}
	parsed, err := jwt.ParseSigned(string(t))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to parse id_token: %w: %s", op, ErrInvalidParameter, err)
	}
	var claims IdTokenClaims
	if err := parsed.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return nil, fmt.Errorf("%s: unable to read id_token claims: %w: %s", op, ErrInvalidParameter, err)
	}
	return &claims, nil
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package login

import (
	"context"
	"time"

	"github.com/hashicorp/caplogin/oidc"
)

// Credentials are the local (non-oidc) login credentials.
type Credentials struct {
	AccessKey string
	SecretKey oidc.ClientSecret
}

// STSRequest asks the backend to exchange a provider result for a session.
// Exactly one of Token (implicit flow) or Code (authorization code flow) is
// set.
type STSRequest struct {
	// Token is the id_token returned in the fragment of an implicit flow
	// redirect.  Its nonce has already been verified.
	Token oidc.IdToken

	// Code is the authorization code returned in the query of a code flow
	// redirect.
	Code string

	// RedirectURI is the redirect_uri the code was issued for.
	RedirectURI string

	// Nonce is the nonce of the attempt, when one was pending.  The backend
	// should require it in the id_token it verifies.
	Nonce string
}

// Session is the opaque result of a successful login.
type Session struct {
	ID      string    `json:"id"`
	Subject string    `json:"subject,omitempty"`
	Expiry  time.Time `json:"expiry,omitempty"`
}

// Backend is the resource owner's backend, as seen from a single browser.
// Its transport is up to the implementation.
type Backend interface {
	oidc.DiscoveryFetcher

	// Login with local credentials.
	Login(ctx context.Context, c Credentials) (*Session, error)

	// LoginSTS exchanges an id_token or authorization code for a session.
	LoginSTS(ctx context.Context, r *STSRequest) (*Session, error)

	// Logout ends the current session.
	Logout(ctx context.Context) error

	// LoggedIn reports whether there's a current session.
	LoggedIn(ctx context.Context) (bool, error)
}

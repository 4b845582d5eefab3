// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package login

import "github.com/hashicorp/caplogin/oidc"

// AuthSessionContext is one authorization attempt, from discovery to the
// URL the browser is sent to.  It's built by Controller.StartAuthorization
// after the nonce has been persisted and the logout gate consumed.
type AuthSessionContext struct {
	Discovery   *oidc.Discovery
	ClientID    string
	RedirectURI string
	Nonce       string
	ForceReauth bool

	// AuthURL embeds Nonce.
	AuthURL string
}

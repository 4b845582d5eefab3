// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// caplogin (cap login orchestration) provides the relying-party side of an
// OIDC login page: a login that redirects straight to the provider when it
// can, single-use nonces for both the authorization code and implicit flows,
// a logout that forces the provider's login prompt, and links into the
// provider's account pages.
//
// Packages:
//
//	oidc          discovery, nonces, the logout gate, authorization URLs and
//	              the Provider (code exchange and id_token verification)
//	oidc/callback the return leg of an authorization request
//	login         the login page state machine
//	account       provider account-management links (change password)
//	storage       key/value storage of login state, in memory or redis
//
// See login/examples/server for a runnable relying party.
package caplogin

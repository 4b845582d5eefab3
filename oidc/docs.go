// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
oidc is a package for driving an OIDC login from the relying party's side:
discovering the provider, building authorization requests, protecting them
against replay and verifying what comes back.

Primary types provided by the package

* NonceStore: persists the single-use nonce of an in-flight authorization
request, and consumes it when the provider's response is checked.

* LogoutGate: remembers an explicit logout so the next authorization request
carries prompt=login.

* DiscoveryClient: fetches and normalizes the provider's discovery document
(and the pre-registered client id) from a DiscoveryFetcher.

* Config: provides the configuration for the relying party (for example:
client Id/Secret, supported signing algorithms, audiences).

* Provider: provides integration with a provider. It publishes the
provider's discovery document, exchanges codes for tokens and verifies
id_tokens.

* Token: represents a verified OIDC id_token and an Oauth2 access_token.

* Alg: represents asymmetric signing algorithms

Functions

* AuthURL: builds an authorization request URL for either the authorization
code flow or the implicit flow.

* RedirectURI: derives the redirect_uri from the current location.

The oidc.callback package

The callback package handles the redirect back from the provider for both
flows, verifying the replay nonce before the result is exchanged for a
session.
*/
package oidc

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/caplogin/internal/strutils"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

// Provider provides integration with an oidc provider on behalf of the
// relying party: it publishes the provider's discovery document, exchanges
// authorization codes and verifies id_tokens.
type Provider struct {
	config   *Config
	provider *oidc.Provider
	client   *http.Client
	doc      DiscoveryDocument
	logger   hclog.Logger

	mu sync.Mutex

	// backgroundCtx is the context used by the provider for background
	// activities like: refreshing JWKs key sets.
	backgroundCtx context.Context

	// backgroundCtxCancel is used to cancel any background activities running
	// in spawned go routines.
	backgroundCtxCancel context.CancelFunc
}

var _ DiscoveryFetcher = (*Provider)(nil)

// NewProvider creates and initializes a Provider.  Initializing the provider
// includes making an http request to the provider's issuer for its
// discovery document.
//
// See Provider.Done() which must be called to release provider resources.
func NewProvider(c *Config) (*Provider, error) {
	const op = "NewProvider"
	if c == nil {
		return nil, fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: provider config is invalid: %w", op, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	// initializing the Provider with it's background ctx/cancel will
	// allow us to use p.Done() to release any resources when returning errors
	// from this function.
	p := &Provider{
		config:              c,
		logger:              c.Logger,
		backgroundCtx:       ctx,
		backgroundCtxCancel: cancel,
	}
	if p.logger == nil {
		p.logger = hclog.NewNullLogger()
	}
	p.logger = p.logger.Named("provider")

	client, err := c.HttpClient()
	if err != nil {
		p.Done() // release the backgroundCtxCancel resources
		return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
	}
	p.client = client

	provider, err := oidc.NewProvider(HttpClientContext(p.backgroundCtx, client), c.Issuer) // makes http req to issuer for discovery
	if err != nil {
		p.Done() // release the backgroundCtxCancel resources
		return nil, fmt.Errorf("%s: unable to create provider: %w: %s", op, ErrDiscoveryUnavailable, err)
	}
	p.provider = provider

	if err := provider.Claims(&p.doc); err != nil {
		p.Done()
		return nil, fmt.Errorf("%s: unable to read discovery document: %w: %s", op, ErrDiscoveryUnavailable, err)
	}
	if len(p.doc.ScopesSupported) == 0 && len(c.Scopes) > 0 {
		p.doc.ScopesSupported = append([]string(nil), c.Scopes...)
	}
	p.logger.Debug("discovered provider", "issuer", p.doc.Issuer, "authorization_endpoint", p.doc.AuthorizationEndpoint)
	return p, nil
}

// Done with the provider's background resources and must be called for every
// Provider created
func (p *Provider) Done() {
	// checking for nil here prevents a panic when developers neglect to check
	// the for an error before deferring a call to p.Done():
	// p, err := NewProvider(...)
	// defer p.Done()
	// if err != nil { ... }
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.backgroundCtxCancel != nil {
		p.backgroundCtxCancel()
		p.backgroundCtxCancel = nil
	}
}

// GetDiscoveryDoc implements DiscoveryFetcher.  It returns a copy of the
// document fetched when the provider was created, along with the configured
// client id.
func (p *Provider) GetDiscoveryDoc(_ context.Context) (*DiscoveryResponse, error) {
	doc := p.doc
	doc.ScopesSupported = append([]string(nil), p.doc.ScopesSupported...)
	return &DiscoveryResponse{
		DiscoveryDoc: &doc,
		ClientID:     p.config.ClientID,
	}, nil
}

// Exchange requests a token from the provider's token endpoint using the
// authorization code from a successful authentication response.  The
// redirectURI must be the one used for the authorization request.  When
// nonce is not empty the id_token's nonce must equal it.
func (p *Provider) Exchange(ctx context.Context, code, redirectURI, nonce string) (*Token, error) {
	const op = "Provider.Exchange"
	switch {
	case code == "":
		return nil, fmt.Errorf("%s: authorization code is empty: %w", op, ErrInvalidParameter)
	case redirectURI == "":
		return nil, fmt.Errorf("%s: redirect uri is empty: %w", op, ErrInvalidParameter)
	case p.config.ClientID == "":
		return nil, fmt.Errorf("%s: provider has no client id: %w", op, ErrInvalidParameter)
	}
	oauth2Config := oauth2.Config{
		ClientID:     p.config.ClientID,
		ClientSecret: string(p.config.ClientSecret),
		RedirectURL:  redirectURI,
		Endpoint:     p.provider.Endpoint(),
		Scopes:       NormalizeScopes(p.doc.ScopesSupported),
	}
	oauth2Token, err := oauth2Config.Exchange(HttpClientContext(ctx, p.client), code)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to exchange auth code with provider: %w", op, err)
	}
	idToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return nil, fmt.Errorf("%s: id_token is missing from auth code exchange: %w", op, ErrMissingIdToken)
	}
	t, err := p.VerifyIdToken(ctx, IdToken(idToken), nonce)
	if err != nil {
		return nil, fmt.Errorf("%s: id_token failed verification: %w", op, err)
	}
	t.AccessToken = AccessToken(oauth2Token.AccessToken)
	return t, nil
}

// VerifyIdToken will verify the inbound IdToken.  It verifies it's been signed
// by the provider, that it hasn't expired, the nonce (when not empty), and
// the audiences from the provider's config.
//
// See: https://openid.net/specs/openid-connect-core-1_0.html#IDTokenValidation
func (p *Provider) VerifyIdToken(ctx context.Context, t IdToken, nonce string) (*Token, error) {
	const op = "Provider.VerifyIdToken"
	if t == "" {
		return nil, fmt.Errorf("%s: id_token is empty: %w", op, ErrInvalidParameter)
	}
	algs := make([]string, 0, len(p.config.SupportedSigningAlgs))
	for _, a := range p.config.SupportedSigningAlgs {
		algs = append(algs, string(a))
	}
	oidcConfig := &oidc.Config{
		ClientID:             p.config.ClientID,
		SkipClientIDCheck:    p.config.ClientID == "",
		SupportedSigningAlgs: algs,
		Now:                  p.config.Now,
	}
	verifier := p.provider.Verifier(oidcConfig)

	oidcIdToken, err := verifier.Verify(HttpClientContext(ctx, p.client), string(t))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid id_token: %w", op, err)
	}
	if nonce != "" && oidcIdToken.Nonce != nonce {
		return nil, fmt.Errorf("%s: invalid id_token nonce: %w", op, ErrInvalidNonce)
	}
	if len(p.config.Audiences) > 0 {
		found := false
		for _, v := range p.config.Audiences {
			if strutils.StrListContains(oidcIdToken.Audience, v) {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%s: invalid id_token audiences: %w", op, ErrInvalidAudience)
		}
	}
	return &Token{
		IdToken: t,
		Expiry:  oidcIdToken.Expiry,
		Subject: oidcIdToken.Subject,
		Nonce:   oidcIdToken.Nonce,
	}, nil
}

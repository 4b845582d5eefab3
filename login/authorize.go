// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package login

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/caplogin/oidc"
)

// StartAuthorization begins an authorization attempt for clientID: a new
// nonce is generated and persisted, the logout gate is consumed and the
// authorization URL is built, in that order.  Both the automatic redirect and
// the manual client id form start here.
func (c *Controller) StartAuthorization(ctx context.Context, current *url.URL, d *oidc.Discovery, clientID string) (*AuthSessionContext, error) {
	const op = "Controller.StartAuthorization"
	switch {
	case d == nil:
		return nil, fmt.Errorf("%s: discovery is nil: %w", op, oidc.ErrNilParameter)
	case clientID == "":
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyClientID)
	}
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	redirectURI, err := c.redirectURIFor(current)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	nonce, err := c.nonces.Generate()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.nonces.Persist(ctx, nonce); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// The logout flag stays put for the next attempt when this one was
	// abandoned while the nonce was written.
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.abandon(ctx, &AuthSessionContext{Nonce: nonce})
		return nil, fmt.Errorf("%s: %w", op, ctxErr)
	}
	force, err := c.gate.ConsumeForceReauth(ctx)
	if err != nil {
		c.logger.Warn("unable to read logout flag", "error", err)
	}

	authURL, err := oidc.AuthURL(
		d.Document.AuthorizationEndpoint,
		d.Document.Scopes(),
		redirectURI,
		clientID,
		nonce,
		force,
		oidc.WithResponseType(c.responseType),
		oidc.WithUILocales(c.uiLocales...),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.logger.Debug("starting authorization", "client_id", clientID, "redirect_uri", redirectURI, "force_reauth", force)
	return &AuthSessionContext{
		Discovery:   d,
		ClientID:    clientID,
		RedirectURI: redirectURI,
		Nonce:       nonce,
		ForceReauth: force,
		AuthURL:     authURL,
	}, nil
}

// abandon undoes an attempt that will never reach the provider: the nonce is
// cleared and a consumed logout flag is put back.
func (c *Controller) abandon(ctx context.Context, sc *AuthSessionContext) {
	ctx = context.WithoutCancel(ctx)
	if err := c.nonces.Clear(ctx); err != nil {
		c.logger.Warn("unable to clear abandoned nonce", "error", err)
	}
	if !sc.ForceReauth {
		return
	}
	if err := c.gate.MarkLoggedOut(ctx); err != nil {
		c.logger.Error("unable to restore logout flag", "error", err)
	}
}

// SubmitManualClientID starts an authorization attempt with a client id the
// user entered.
func (c *Controller) SubmitManualClientID(ctx context.Context, current *url.URL, clientID string) (*Decision, error) {
	const op = "Controller.SubmitManualClientID"
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyClientID)
	}
	d, err := c.discovery.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sc, err := c.StartAuthorization(ctx, current, d, clientID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Decision{
		State:       StateRedirectingToProvider,
		RedirectURL: sc.AuthURL,
		Session:     sc,
	}, nil
}

// redirectURIFor returns the redirect_uri: the fixed one, or the login page
// of the current origin with the callback path appended.  The current path
// and query are not carried over, so the manual entry page shares the login
// page's redirect_uri.  See oidc.RedirectURI.
func (c *Controller) redirectURIFor(current *url.URL) (string, error) {
	const op = "Controller.redirectURIFor"
	if c.redirectURI != "" {
		return c.redirectURI, nil
	}
	if current == nil {
		return "", fmt.Errorf("%s: current location is nil: %w", op, oidc.ErrNilParameter)
	}
	loginPage := *current
	loginPage.Path = c.loginPath
	loginPage.RawPath = ""
	return oidc.RedirectURI(&loginPage, oidc.DefaultCallbackPath)
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package login

import (
	"context"
	"fmt"

	"github.com/hashicorp/caplogin/account"
	"github.com/hashicorp/caplogin/oidc"
)

// LocalLogin logs in with local credentials.  A successful login clears the
// logout flag.  Backend failures are reported as oidc.ErrExchangeFailed.
func (c *Controller) LocalLogin(ctx context.Context, creds Credentials) (*Session, error) {
	const op = "Controller.LocalLogin"
	switch {
	case creds.SecretKey == "":
		return nil, fmt.Errorf("%s: %w", op, ErrEmptySecretKey)
	case creds.AccessKey == "":
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyAccessKey)
	}
	s, err := c.backend.Login(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, oidc.ErrExchangeFailed, err)
	}
	if err := c.gate.Clear(ctx); err != nil {
		c.logger.Warn("unable to clear logout flag", "error", err)
	}
	return s, nil
}

// Logout marks the browser as logged out, so the next authorization request
// forces a provider login prompt, and ends the session.
func (c *Controller) Logout(ctx context.Context) error {
	const op = "Controller.Logout"
	if err := c.gate.MarkLoggedOut(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.backend.Logout(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ChangePassword decides where the account menu's "change password" goes,
// reusing the Controller's discovery data.  It never fails.
func (c *Controller) ChangePassword(ctx context.Context, r *account.Resolver) account.Target {
	if r == nil {
		return account.Target{Kind: account.TargetModal}
	}
	d, err := c.discovery.Fetch(ctx)
	if err != nil {
		c.logger.Debug("no discovery document for account link", "error", err)
		return account.Target{Kind: account.TargetModal}
	}
	return r.ChangePassword(&d.Document)
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/caplogin/storage"
	"github.com/hashicorp/go-hclog"
)

const (
	// LogoutFlagKey is the storage key of the forced-logout flag.
	LogoutFlagKey = "minioLoggedOut"

	// logoutFlagValue is the only value which forces re-authentication.
	logoutFlagValue = "true"
)

// LogoutGate remembers an explicit logout so the next authorization request
// asks the provider for a fresh credential prompt (prompt=login), instead of
// letting the provider's own session silently log the user back in.
type LogoutGate struct {
	store  storage.Store
	logger hclog.Logger
}

// NewLogoutGate creates a LogoutGate.
// Supported options: WithLogger
func NewLogoutGate(s storage.Store, opt ...Option) (*LogoutGate, error) {
	const op = "NewLogoutGate"
	if s == nil {
		return nil, fmt.Errorf("%s: store is nil: %w", op, ErrNilParameter)
	}
	opts := getGateOpts(opt...)
	return &LogoutGate{
		store:  s,
		logger: opts.withLogger.Named("logout-gate"),
	}, nil
}

// MarkLoggedOut sets the flag.  It is idempotent and must be called before
// navigating away on an explicit logout.
func (g *LogoutGate) MarkLoggedOut(ctx context.Context) error {
	const op = "LogoutGate.MarkLoggedOut"
	if err := g.store.Set(ctx, LogoutFlagKey, logoutFlagValue, storage.NoExpiry); err != nil {
		return fmt.Errorf("%s: unable to set logout flag: %w", op, err)
	}
	return nil
}

// ConsumeForceReauth reads and clears the flag, returning true if the next
// authorization request must force a login prompt.  Call it exactly once per
// authorization URL.
func (g *LogoutGate) ConsumeForceReauth(ctx context.Context) (bool, error) {
	const op = "LogoutGate.ConsumeForceReauth"
	v, err := g.store.Take(ctx, LogoutFlagKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("%s: unable to read logout flag: %w", op, err)
	}
	force := v == logoutFlagValue
	if force {
		g.logger.Debug("forcing provider login prompt after logout")
	}
	return force, nil
}

// Clear removes the flag without reading it, e.g. after a successful local
// credential login.
func (g *LogoutGate) Clear(ctx context.Context) error {
	const op = "LogoutGate.Clear"
	if err := g.store.Delete(ctx, LogoutFlagKey); err != nil {
		return fmt.Errorf("%s: unable to clear logout flag: %w", op, err)
	}
	return nil
}

type gateOptions struct {
	withLogger hclog.Logger
}

func gateDefaults() gateOptions {
	return gateOptions{withLogger: hclog.NewNullLogger()}
}

func getGateOpts(opt ...Option) gateOptions {
	opts := gateDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/caplogin/storage"
	"github.com/hashicorp/go-hclog"
)

// NonceKey is the storage key of the pending nonce.  Only NonceStore touches
// it.
const NonceKey = "openIDKey"

// DefaultNonceTTL bounds how long a pending nonce survives in storage.
const DefaultNonceTTL = 10 * time.Minute

// NonceStore persists the single-use nonce of an in-flight authorization
// attempt.  A nonce is written once by Persist and consumed exactly once by
// ConsumeAndVerify.
type NonceStore struct {
	store  storage.Store
	ttl    time.Duration
	logger hclog.Logger
}

// NewNonceStore creates a NonceStore.  The store should already be scoped to
// a single browser instance (see storage.Scoped).
// Supported options: WithLogger, WithNonceTTL
func NewNonceStore(s storage.Store, opt ...Option) (*NonceStore, error) {
	const op = "NewNonceStore"
	if s == nil {
		return nil, fmt.Errorf("%s: store is nil: %w", op, ErrNilParameter)
	}
	opts := getNonceOpts(opt...)
	if opts.withTTL <= 0 {
		return nil, fmt.Errorf("%s: nonce ttl must be greater than zero: %w", op, ErrInvalidParameter)
	}
	return &NonceStore{
		store:  s,
		ttl:    opts.withTTL,
		logger: opts.withLogger.Named("nonce"),
	}, nil
}

// Generate a new random nonce.  Every authorization attempt must use a new
// one.
func (n *NonceStore) Generate() (string, error) {
	const op = "NonceStore.Generate"
	nonce, err := NewID(WithPrefix("n"))
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate nonce: %w", op, err)
	}
	return nonce, nil
}

// Persist writes the nonce, replacing any previous pending nonce.
func (n *NonceStore) Persist(ctx context.Context, nonce string) error {
	const op = "NonceStore.Persist"
	if nonce == "" {
		return fmt.Errorf("%s: nonce is empty: %w", op, ErrInvalidParameter)
	}
	if err := n.store.Set(ctx, NonceKey, nonce, n.ttl); err != nil {
		return fmt.Errorf("%s: unable to persist nonce: %w", op, err)
	}
	return nil
}

// ConsumeAndVerify reads and deletes the pending nonce and reports whether it
// equals candidate.  No pending nonce, or an empty candidate, never
// verifies.
func (n *NonceStore) ConsumeAndVerify(ctx context.Context, candidate string) (bool, error) {
	const op = "NonceStore.ConsumeAndVerify"
	stored, err := n.store.Take(ctx, NonceKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		n.logger.Debug("no pending nonce")
		return false, nil
	case err != nil:
		return false, fmt.Errorf("%s: unable to read nonce: %w", op, err)
	}
	if candidate == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1, nil
}

// Peek returns the pending nonce without consuming it.
func (n *NonceStore) Peek(ctx context.Context) (string, bool, error) {
	const op = "NonceStore.Peek"
	v, err := n.store.Get(ctx, NonceKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("%s: unable to read nonce: %w", op, err)
	}
	return v, true, nil
}

// Clear deletes the pending nonce.
func (n *NonceStore) Clear(ctx context.Context) error {
	const op = "NonceStore.Clear"
	if err := n.store.Delete(ctx, NonceKey); err != nil {
		return fmt.Errorf("%s: unable to clear nonce: %w", op, err)
	}
	return nil
}

// nonceOptions is the set of available options for NonceStore
type nonceOptions struct {
	withTTL    time.Duration
	withLogger hclog.Logger
}

func nonceDefaults() nonceOptions {
	return nonceOptions{
		withTTL:    DefaultNonceTTL,
		withLogger: hclog.NewNullLogger(),
	}
}

func getNonceOpts(opt ...Option) nonceOptions {
	opts := nonceDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithNonceTTL overrides DefaultNonceTTL.
func WithNonceTTL(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*nonceOptions); ok {
			o.withTTL = d
		}
	}
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package storage provides the durable key/value storage used to carry
// login state (pending nonces, the forced-logout flag, sessions) between
// the legs of an oidc flow.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// NoExpiry can be passed to Store.Set for values which must never expire.
const NoExpiry time.Duration = 0

// Store is a string key/value store.  Implementations must be concurrently
// safe.  Concurrent writers to the same key are last-writer-wins.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key.  A ttl of NoExpiry keeps the value until
	// it is deleted.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key.  Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Take atomically reads and deletes key, returning ErrNotFound if it
	// was not present.
	Take(ctx context.Context, key string) (string, error)
}

// scoped namespaces every key of an underlying Store.
type scoped struct {
	prefix string
	s      Store
}

// Scoped returns a Store whose keys all live under scope in s.  It is used
// to give every browser instance its own view of a shared Store.
func Scoped(s Store, scope string) (Store, error) {
	const op = "storage.Scoped"
	if s == nil {
		return nil, fmt.Errorf("%s: store is nil: %w", op, ErrInvalidParameter)
	}
	if strings.TrimSpace(scope) == "" {
		return nil, fmt.Errorf("%s: scope is empty: %w", op, ErrInvalidParameter)
	}
	return &scoped{prefix: scope + ":", s: s}, nil
}

func (s *scoped) Get(ctx context.Context, key string) (string, error) {
	return s.s.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.s.Set(ctx, s.prefix+key, value, ttl)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.s.Delete(ctx, s.prefix+key)
}

func (s *scoped) Take(ctx context.Context, key string) (string, error) {
	return s.s.Take(ctx, s.prefix+key)
}

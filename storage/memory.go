// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Memory is an in-process Store backed by a ttlcache.  Expired entries are
// removed by a background janitor until Stop is called.
type Memory struct {
	// mu serializes writers so Take reads and deletes as one step.
	mu    sync.Mutex
	cache *ttlcache.Cache[string, string]
}

var _ Store = (*Memory)(nil)

// NewMemory creates a Memory store and starts its janitor.
//
// See Memory.Stop() which must be called to release the janitor.
func NewMemory() *Memory {
	c := ttlcache.New[string, string](
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go c.Start()
	return &Memory{cache: c}
}

// Stop the background janitor.
func (m *Memory) Stop() {
	m.cache.Stop()
}

// Get implements Store.Get.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	const op = "Memory.Get"
	item := m.cache.Get(key)
	if item == nil || item.IsExpired() {
		return "", fmt.Errorf("%s: %s: %w", op, key, ErrNotFound)
	}
	return item.Value(), nil
}

// Set implements Store.Set.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	const op = "Memory.Set"
	if key == "" {
		return fmt.Errorf("%s: key is empty: %w", op, ErrInvalidParameter)
	}
	if ttl < 0 {
		return fmt.Errorf("%s: negative ttl: %w", op, ErrInvalidParameter)
	}
	if ttl == NoExpiry {
		ttl = ttlcache.NoTTL
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Set(key, value, ttl)
	return nil
}

// Delete implements Store.Delete.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Delete(key)
	return nil
}

// Take implements Store.Take.
func (m *Memory) Take(ctx context.Context, key string) (string, error) {
	const op = "Memory.Take"
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	m.cache.Delete(key)
	return v, nil
}

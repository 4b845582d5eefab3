// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package redis implements storage.Store on top of Redis so login state can
// be shared by several relying-party replicas.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/caplogin/storage"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by a Store.
const DefaultPrefix = "caplogin"

// Store implements storage.Store using Redis
type Store struct {
	client redis.UniversalClient
	prefix string
}

var _ storage.Store = (*Store)(nil)

// New creates a Store.  An empty prefix uses DefaultPrefix.
func New(client redis.UniversalClient, prefix string) (*Store, error) {
	const op = "redis.New"
	if client == nil {
		return nil, fmt.Errorf("%s: client is nil: %w", op, storage.ErrInvalidParameter)
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}, nil
}

func (s *Store) key(k string) string {
	return fmt.Sprintf("%s:%s", s.prefix, k)
}

// Get implements storage.Store.Get.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	const op = "redis.(Store).Get"
	v, err := s.client.Get(ctx, s.key(key)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", fmt.Errorf("%s: %s: %w", op, key, storage.ErrNotFound)
	case err != nil:
		return "", fmt.Errorf("%s: unable to get %s: %w", op, key, err)
	}
	return v, nil
}

// Set implements storage.Store.Set.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	const op = "redis.(Store).Set"
	if key == "" {
		return fmt.Errorf("%s: key is empty: %w", op, storage.ErrInvalidParameter)
	}
	if ttl < 0 {
		return fmt.Errorf("%s: negative ttl: %w", op, storage.ErrInvalidParameter)
	}
	// a zero expiration is a key without ttl in go-redis as well
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: unable to set %s: %w", op, key, err)
	}
	return nil
}

// Delete implements storage.Store.Delete.
func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "redis.(Store).Delete"
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%s: unable to delete %s: %w", op, key, err)
	}
	return nil
}

// Take implements storage.Store.Take using GETDEL (Redis >= 6.2).
func (s *Store) Take(ctx context.Context, key string) (string, error) {
	const op = "redis.(Store).Take"
	v, err := s.client.GetDel(ctx, s.key(key)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", fmt.Errorf("%s: %s: %w", op, key, storage.ErrNotFound)
	case err != nil:
		return "", fmt.Errorf("%s: unable to take %s: %w", op, key, err)
	}
	return v, nil
}

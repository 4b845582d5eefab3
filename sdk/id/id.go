// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package id generates random identifiers suitable for oidc nonces and
// states.
package id

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-secure-stdlib/base62"
)

// DefaultLen is the number of random base62 characters in an id, not
// counting the optional prefix.
const DefaultLen = 20

// ErrInvalidLength is returned when the requested length is not positive.
var ErrInvalidLength = errors.New("invalid id length")

// New generates an id with an optional prefix.  The random part is
// DefaultLen characters long.
func New(optionalPrefix string) (string, error) {
	return NewWithLen(optionalPrefix, DefaultLen)
}

// NewWithLen generates an id with an optional prefix and n random base62
// characters.
func NewWithLen(optionalPrefix string, n int) (string, error) {
	const op = "id.NewWithLen"
	if n <= 0 {
		return "", fmt.Errorf("%s: %d: %w", op, n, ErrInvalidLength)
	}
	id, err := base62.Random(n)
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate id: %w", op, err)
	}
	switch {
	case optionalPrefix != "":
		return fmt.Sprintf("%s_%s", optionalPrefix, id), nil
	default:
		return id, nil
	}
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"

	"github.com/hashicorp/caplogin/sdk/id"
)

// DefaultIDLength is the number of random characters in ids generated by
// NewID.  It satisfies the 16 character minimum for nonces.
const DefaultIDLength = id.DefaultLen

// NewID generates an id with an optional prefix (see WithPrefix).  The id is
// suitable for a nonce or a state.
func NewID(opt ...Option) (string, error) {
	const op = "NewID"
	opts := getIDOpts(opt...)
	s, err := id.NewWithLen(opts.withPrefix, opts.withLen)
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate id: %w: %s", op, ErrIdGeneratorFailed, err)
	}
	return s, nil
}

// idOptions is the set of available options.
type idOptions struct {
	withPrefix string
	withLen    int
}

// idDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func idDefaults() idOptions {
	return idOptions{withLen: DefaultIDLength}
}

// getIDOpts gets the defaults and applies the opt overrides passed in.
func getIDOpts(opt ...Option) idOptions {
	opts := idDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithPrefix provides an optional prefix for an new ID.  When this options is
// provided, NewID will prepend the prefix and an underscore to the new
// identifier.
func WithPrefix(prefix string) Option {
	return func(o interface{}) {
		if o, ok := o.(*idOptions); ok {
			o.withPrefix = prefix
		}
	}
}

// WithLength overrides the number of random characters in a new ID.
func WithLength(n int) Option {
	return func(o interface{}) {
		if o, ok := o.(*idOptions); ok {
			o.withLen = n
		}
	}
}

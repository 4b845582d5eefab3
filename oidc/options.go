// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

// WithLogger provides an optional logger for: NonceStore, LogoutGate,
// DiscoveryClient and Provider.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if l == nil {
			return
		}
		switch v := o.(type) {
		case *nonceOptions:
			v.withLogger = l
		case *gateOptions:
			v.withLogger = l
		case *discoveryOptions:
			v.withLogger = l
		case *configOptions:
			v.withLogger = l
		}
	}
}

// WithNow provides an optional func for determining what the current time it
// is, for: Provider (id_token verification).
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if now == nil {
			return
		}
		if v, ok := o.(*configOptions); ok {
			v.withNowFunc = now
		}
	}
}

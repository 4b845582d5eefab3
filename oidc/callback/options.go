// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"github.com/hashicorp/caplogin/login"
	"github.com/hashicorp/caplogin/oidc"
	"github.com/hashicorp/go-hclog"
)

// handlerOptions is the set of available options for Handler
type handlerOptions struct {
	withLogger       hclog.Logger
	withCallbackPath string
	withRedirectURI  string
	withDiscovery    *oidc.DiscoveryClient

	withManualEntryPath string
}

func handlerDefaults() handlerOptions {
	return handlerOptions{
		withLogger:       hclog.NewNullLogger(),
		withCallbackPath: DefaultCallbackPath,

		withManualEntryPath: login.DefaultManualEntryPath,
	}
}

func getHandlerOpts(opt ...oidc.Option) handlerOptions {
	opts := handlerDefaults()
	oidc.ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger for the Handler.
func WithLogger(l hclog.Logger) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithCallbackPath overrides DefaultCallbackPath.  The code flow's
// redirect_uri is the callback URL's origin joined with the path.
func WithCallbackPath(p string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok && p != "" {
			o.withCallbackPath = p
		}
	}
}

// WithRedirectURI fixes the code flow's redirect_uri, instead of deriving it
// from the callback URL.
func WithRedirectURI(uri string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withRedirectURI = uri
		}
	}
}

// WithDiscovery provides the DiscoveryClient used to populate the manual
// client id form.  Without it the form is shown empty.
func WithDiscovery(c *oidc.DiscoveryClient) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withDiscovery = c
		}
	}
}

// WithManualEntryPath overrides login.DefaultManualEntryPath, the path on
// which the http handler treats a request without a code or token as the
// interactive manual entry page.
func WithManualEntryPath(p string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok && p != "" {
			o.withManualEntryPath = p
		}
	}
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package login

import (
	"github.com/hashicorp/caplogin/oidc"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/text/language"
)

// controllerOptions is the set of available options for Controller
type controllerOptions struct {
	withLogger          hclog.Logger
	withDiscovery       *oidc.DiscoveryClient
	withAutoRedirect    bool
	withResponseType    oidc.ResponseType
	withUILocales       []language.Tag
	withLoginPath       string
	withHomePath        string
	withManualEntryPath string
	withRedirectURI     string
}

// controllerDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func controllerDefaults() controllerOptions {
	return controllerOptions{
		withLogger:          hclog.NewNullLogger(),
		withAutoRedirect:    true,
		withResponseType:    oidc.ResponseTypeCode,
		withLoginPath:       DefaultLoginPath,
		withHomePath:        DefaultHomePath,
		withManualEntryPath: DefaultManualEntryPath,
	}
}

func getControllerOpts(opt ...oidc.Option) controllerOptions {
	opts := controllerDefaults()
	oidc.ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger for the Controller.
func WithLogger(l hclog.Logger) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*controllerOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithDiscovery shares a DiscoveryClient (e.g. a caching one) instead of
// creating one on top of the Backend.
func WithDiscovery(c *oidc.DiscoveryClient) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*controllerOptions); ok {
			o.withDiscovery = c
		}
	}
}

// WithAutoRedirect enables (the default) or suppresses the automatic
// redirect to the provider.
func WithAutoRedirect(enabled bool) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*controllerOptions); ok {
			o.withAutoRedirect = enabled
		}
	}
}

// WithResponseType selects the flow of authorization requests.  The default
// is the authorization code flow.
func WithResponseType(rt oidc.ResponseType) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*controllerOptions); ok && rt != "" {
			o.withResponseType = rt
		}
	}
}

// WithUILocales passes the user's preferred languages to the provider.
func WithUILocales(locales ...language.Tag) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*controllerOptions); ok {
			o.withUILocales = locales
		}
	}
}

// WithLoginPath overrides DefaultLoginPath.  The redirect_uri is derived from
// it.
func WithLoginPath(p string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*controllerOptions); ok && p != "" {
			o.withLoginPath = p
		}
	}
}

// WithHomePath overrides DefaultHomePath.
func WithHomePath(p string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*controllerOptions); ok && p != "" {
			o.withHomePath = p
		}
	}
}

// WithManualEntryPath overrides DefaultManualEntryPath.
func WithManualEntryPath(p string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*controllerOptions); ok && p != "" {
			o.withManualEntryPath = p
		}
	}
}

// WithRedirectURI fixes the redirect_uri instead of deriving it from the
// current location.
func WithRedirectURI(uri string) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*controllerOptions); ok {
			o.withRedirectURI = uri
		}
	}
}

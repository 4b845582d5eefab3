// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/caplogin/internal/strutils"
	sdkHttp "github.com/hashicorp/caplogin/sdk/http"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// ClientSecret is an oauth client Secret.
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// Config represents the configuration for the relying party side of a
// provider: the pre-registered client, how to reach the issuer and how to
// verify its id_tokens.
type Config struct {
	// ClientID is the relying party id.  It may be empty when the client id
	// is collected from the user at login time.
	ClientID string

	// ClientSecret is the relying party secret.  It is only needed for the
	// authorization code flow.
	ClientSecret ClientSecret

	// Scopes is a list of scopes to advertise when the provider doesn't
	// publish scopes_supported.
	Scopes []string

	// Issuer is a case-sensitive URL string using the https scheme that
	// contains scheme, host, and optionally, port number and path components
	// and no query or fragment components.
	Issuer string

	// SupportedSigningAlgs is a list of supported signing algorithms. List of
	// currently supported algs: RS256, RS384, RS512, ES256, ES384, ES512,
	// PS256, PS384, PS512
	SupportedSigningAlgs []Alg

	// Audiences is a optional list of case-sensitive strings used when
	// verifying an id_token's "aud" claim
	Audiences []string

	// ProviderCA is an optional CA certs (PEM encoded) to use when sending
	// requests to the provider.
	ProviderCA string

	// Logger is an optional logger
	Logger hclog.Logger

	// NowFunc is a time func that returns the current time.
	NowFunc func() time.Time
}

// NewConfig composes a new config for a provider.
// Supported options:
//
//	WithLogger
//	WithNow
//	WithProviderCA
//	WithScopes
//	WithAudiences
func NewConfig(issuer string, clientID string, clientSecret ClientSecret, supported []Alg, opt ...Option) (*Config, error) {
	const op = "NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		Issuer:               issuer,
		ClientID:             clientID,
		ClientSecret:         clientSecret,
		SupportedSigningAlgs: supported,
		Scopes:               opts.withScopes,
		Audiences:            opts.withAudiences,
		ProviderCA:           opts.withProviderCA,
		Logger:               opts.withLogger,
		NowFunc:              opts.withNowFunc,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid provider config: %w", op, err)
	}
	return c, nil
}

// Validate the provider configuration.  Every problem found is reported (as
// a multierror).  It verifies the issuer is a http(s) url, but it doesn't
// verify the Issuer is discoverable via an http request.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if c == nil {
		return fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	}
	var result *multierror.Error
	if c.Issuer == "" {
		result = multierror.Append(result, fmt.Errorf("%s: discovery URL is empty: %w", op, ErrInvalidParameter))
	} else {
		u, err := url.Parse(c.Issuer)
		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("%s: issuer %s is invalid (%s): %w", op, c.Issuer, err, ErrInvalidIssuer))
		case !strutils.StrListContains([]string{"https", "http"}, u.Scheme):
			result = multierror.Append(result, fmt.Errorf("%s: issuer %s schema is not http or https: %w", op, c.Issuer, ErrInvalidIssuer))
		}
	}
	if c.ClientSecret != "" && c.ClientID == "" {
		result = multierror.Append(result, fmt.Errorf("%s: client secret without client id: %w", op, ErrInvalidParameter))
	}
	if len(c.SupportedSigningAlgs) == 0 {
		result = multierror.Append(result, fmt.Errorf("%s: supported algorithms is empty: %w", op, ErrInvalidParameter))
	}
	for _, a := range c.SupportedSigningAlgs {
		if !supportedAlgorithms[a] {
			result = multierror.Append(result, fmt.Errorf("%s: unsupported algorithm %s: %w", op, a, ErrUnsupportedAlg))
		}
	}
	if c.ProviderCA != "" {
		if _, err := sdkHttp.NewClient(c.ProviderCA); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", op, ErrInvalidCACert))
		}
	}
	return result.ErrorOrNil()
}

// Now will return the current time which can be overridden by the NowFunc
func (c *Config) Now() time.Time {
	if c.NowFunc != nil {
		return c.NowFunc()
	}
	return time.Now()
}

// HttpClient is a helper function that creates a new http client for the
// provider configured
func (c *Config) HttpClient() (*http.Client, error) {
	const op = "Config.HttpClient"
	client, err := sdkHttp.NewClient(c.ProviderCA)
	if err != nil {
		if errors.Is(err, sdkHttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
		}
		return nil, fmt.Errorf("%s: could not get an http client: %w", op, err)
	}
	return client, nil
}

// HttpClientContext is a helper function that returns a new Context that
// carries the provided HTTP client. This method sets the same context key used
// by the github.com/coreos/go-oidc and golang.org/x/oauth2 packages, so the
// returned context works for those packages as well.
func HttpClientContext(ctx context.Context, client *http.Client) context.Context {
	return sdkHttp.OidcClientContext(ctx, client)
}

// configOptions is the set of available options
type configOptions struct {
	withScopes     []string
	withAudiences  []string
	withProviderCA string
	withLogger     hclog.Logger
	withNowFunc    func() time.Time
}

// configDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func configDefaults() configOptions {
	return configOptions{withLogger: hclog.NewNullLogger()}
}

// getConfigOpts gets the defaults and applies the opt overrides passed
// in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithScopes provides an optional list of scopes for the provider's config
func WithScopes(scopes ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withScopes = scopes
		}
	}
}

// WithAudiences provides an optional list of audiences for the provider's config
func WithAudiences(auds ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withAudiences = auds
		}
	}
}

// WithProviderCA provides an optional CA cert for the provider's config
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}

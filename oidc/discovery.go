// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jellydator/ttlcache/v3"
)

// DefaultScopes are requested when the discovery document doesn't publish
// scopes_supported.
var DefaultScopes = []string{ScopeOpenID, "profile", "email"}

// DiscoveryDocument is the subset of the provider's published metadata used
// to drive a login.  See:
// https://openid.net/specs/openid-connect-discovery-1_0.html#ProviderMetadata
type DiscoveryDocument struct {
	Issuer                string   `json:"issuer"`
	AuthorizationEndpoint string   `json:"authorization_endpoint"`
	ScopesSupported       []string `json:"scopes_supported,omitempty"`
	TokenEndpoint         string   `json:"token_endpoint,omitempty"`
	EndSessionEndpoint    string   `json:"end_session_endpoint,omitempty"`
}

// Scopes returns ScopesSupported, or DefaultScopes when none were published.
func (d *DiscoveryDocument) Scopes() []string {
	if d == nil || len(d.ScopesSupported) == 0 {
		return append([]string(nil), DefaultScopes...)
	}
	return append([]string(nil), d.ScopesSupported...)
}

// DiscoveryResponse is the shape returned by the backend's discovery call:
// {"DiscoveryDoc": {...}, "clientId": "..."}.
type DiscoveryResponse struct {
	DiscoveryDoc *DiscoveryDocument `json:"DiscoveryDoc"`
	ClientID     string             `json:"clientId"`
}

// DecodeDiscoveryResponse parses and validates a DiscoveryResponse.  Anything
// that isn't a JSON object carrying a DiscoveryDoc fails with
// ErrDiscoveryUnavailable.
func DecodeDiscoveryResponse(r io.Reader) (*DiscoveryResponse, error) {
	const op = "DecodeDiscoveryResponse"
	if r == nil {
		return nil, fmt.Errorf("%s: reader is nil: %w", op, ErrNilParameter)
	}
	var resp DiscoveryResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%s: unable to decode discovery response: %w: %s", op, ErrDiscoveryUnavailable, err)
	}
	if resp.DiscoveryDoc == nil {
		return nil, fmt.Errorf("%s: discovery response has no DiscoveryDoc: %w", op, ErrDiscoveryUnavailable)
	}
	return &resp, nil
}

// DiscoveryFetcher returns the provider discovery document and the
// pre-registered client id (if any).
type DiscoveryFetcher interface {
	GetDiscoveryDoc(ctx context.Context) (*DiscoveryResponse, error)
}

// Discovery is the validated result of DiscoveryClient.Fetch.  It is
// immutable once returned.
type Discovery struct {
	Document DiscoveryDocument

	// ClientID is empty when no client is pre-registered and one has to be
	// collected from the user.
	ClientID string
}

// Configured reports whether the provider published an authorization
// endpoint.  Without one oidc login is disabled.
func (d *Discovery) Configured() bool {
	return d != nil && d.Document.AuthorizationEndpoint != ""
}

// HasClient reports whether a client id is known.
func (d *Discovery) HasClient() bool {
	return d != nil && d.ClientID != ""
}

// Err returns ErrConfigurationIncomplete if oidc login is not configured.
func (d *Discovery) Err() error {
	const op = "Discovery.Err"
	if !d.Configured() {
		return fmt.Errorf("%s: discovery document has no authorization_endpoint: %w", op, ErrConfigurationIncomplete)
	}
	return nil
}

const discoveryCacheKey = "discovery"

// DiscoveryClient fetches discovery data from a DiscoveryFetcher and
// normalizes it.
type DiscoveryClient struct {
	fetcher DiscoveryFetcher
	logger  hclog.Logger
	cache   *ttlcache.Cache[string, *Discovery]
}

// NewDiscoveryClient creates a DiscoveryClient.
// Supported options: WithLogger, WithCacheTTL
func NewDiscoveryClient(f DiscoveryFetcher, opt ...Option) (*DiscoveryClient, error) {
	const op = "NewDiscoveryClient"
	if f == nil {
		return nil, fmt.Errorf("%s: discovery fetcher is nil: %w", op, ErrNilParameter)
	}
	opts := getDiscoveryOpts(opt...)
	if opts.withCacheTTL < 0 {
		return nil, fmt.Errorf("%s: negative cache ttl: %w", op, ErrInvalidParameter)
	}
	c := &DiscoveryClient{
		fetcher: f,
		logger:  opts.withLogger.Named("discovery"),
	}
	if opts.withCacheTTL > 0 {
		c.cache = ttlcache.New[string, *Discovery](
			ttlcache.WithTTL[string, *Discovery](opts.withCacheTTL),
			ttlcache.WithDisableTouchOnHit[string, *Discovery](),
			ttlcache.WithCapacity[string, *Discovery](1),
		)
	}
	return c, nil
}

// Fetch returns the discovery data.  A document without an authorization
// endpoint is returned without error (see Discovery.Configured); a response
// without a client id still returns the document.  Every failure is reported
// as ErrDiscoveryUnavailable.
func (c *DiscoveryClient) Fetch(ctx context.Context) (*Discovery, error) {
	const op = "DiscoveryClient.Fetch"
	if c.cache != nil {
		if item := c.cache.Get(discoveryCacheKey); item != nil && !item.IsExpired() {
			return item.Value(), nil
		}
	}
	resp, err := c.fetcher.GetDiscoveryDoc(ctx)
	switch {
	case err != nil:
		c.logger.Error("failed to get discovery document", "error", err)
		return nil, fmt.Errorf("%s: %w: %s", op, ErrDiscoveryUnavailable, err)
	case resp == nil || resp.DiscoveryDoc == nil:
		c.logger.Warn("discovery response is missing expected properties (DiscoveryDoc)")
		return nil, fmt.Errorf("%s: discovery response has no DiscoveryDoc: %w", op, ErrDiscoveryUnavailable)
	}
	d := &Discovery{
		Document: *resp.DiscoveryDoc,
		ClientID: resp.ClientID,
	}
	d.Document.ScopesSupported = resp.DiscoveryDoc.Scopes()
	if !d.Configured() {
		c.logger.Warn("discovery document received, but 'authorization_endpoint' is missing")
	}
	if !d.HasClient() {
		c.logger.Debug("discovery response has no client id")
	}
	if c.cache != nil {
		c.cache.Set(discoveryCacheKey, d, ttlcache.DefaultTTL)
	}
	return d, nil
}

// Invalidate drops any cached discovery data.
func (c *DiscoveryClient) Invalidate() {
	if c.cache != nil {
		c.cache.DeleteAll()
	}
}

type discoveryOptions struct {
	withLogger   hclog.Logger
	withCacheTTL time.Duration
}

func discoveryDefaults() discoveryOptions {
	return discoveryOptions{withLogger: hclog.NewNullLogger()}
}

func getDiscoveryOpts(opt ...Option) discoveryOptions {
	opts := discoveryDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithCacheTTL keeps a fetched discovery document for d.  Zero (the default)
// disables caching.
func WithCacheTTL(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*discoveryOptions); ok {
			o.withCacheTTL = d
		}
	}
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/caplogin/internal/strutils"
	"golang.org/x/oauth2"
	"golang.org/x/text/language"
)

// ScopeOpenID is the mandatory scope for every oidc request.
const ScopeOpenID = oidc.ScopeOpenID

// ResponseType is an oauth2 response_type.
type ResponseType string

const (
	// ResponseTypeCode selects the authorization code flow.
	ResponseTypeCode ResponseType = "code"

	// ResponseTypeIDToken selects the implicit flow, where the id_token is
	// returned in the redirect's fragment.
	ResponseTypeIDToken ResponseType = "id_token"
)

// PromptLogin asks the provider to prompt for credentials even when it has
// an active session.
const PromptLogin = "login"

// DefaultCallbackPath is appended to the current location to build the
// redirect_uri.
const DefaultCallbackPath = "oauth_callback"

// AuthURL builds an authorization request URL for the provider's
// authorization endpoint.  The scopes are deduplicated and always include
// "openid".  When forceReauth is true the request carries prompt=login.
//
// The query parameters are always emitted in the same (sorted) order, so
// identical inputs yield identical URLs.
//
// Supported options: WithResponseType, WithState, WithUILocales
func AuthURL(endpoint string, scopes []string, redirectURI, clientID, nonce string, forceReauth bool, opt ...Option) (string, error) {
	const op = "AuthURL"
	switch {
	case endpoint == "":
		return "", fmt.Errorf("%s: authorization endpoint is empty: %w", op, ErrInvalidParameter)
	case clientID == "":
		return "", fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter)
	case redirectURI == "":
		return "", fmt.Errorf("%s: redirect uri is empty: %w", op, ErrInvalidParameter)
	case nonce == "":
		return "", fmt.Errorf("%s: nonce is empty: %w", op, ErrInvalidParameter)
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%s: authorization endpoint %q is not an absolute url: %w", op, endpoint, ErrInvalidParameter)
	}
	opts := getReqOpts(opt...)

	oauth2Config := oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Endpoint:    oauth2.Endpoint{AuthURL: endpoint},
		Scopes:      NormalizeScopes(scopes),
	}
	authOpts := []oauth2.AuthCodeOption{
		oidc.Nonce(nonce),
		oauth2.SetAuthURLParam("response_type", string(opts.withResponseType)),
	}
	if forceReauth {
		authOpts = append(authOpts, oauth2.SetAuthURLParam("prompt", PromptLogin))
	}
	if len(opts.withUILocales) > 0 {
		locales := make([]string, 0, len(opts.withUILocales))
		for _, l := range opts.withUILocales {
			locales = append(locales, l.String())
		}
		authOpts = append(authOpts, oauth2.SetAuthURLParam("ui_locales", strings.Join(locales, " ")))
	}
	return oauth2Config.AuthCodeURL(opts.withState, authOpts...), nil
}

// NormalizeScopes removes duplicates and empty entries and makes sure
// "openid" is the first scope.
func NormalizeScopes(scopes []string) []string {
	return strutils.RemoveDuplicatesStable(append([]string{ScopeOpenID}, scopes...), false)
}

// RedirectURI derives the redirect_uri from the current location: the
// fragment and the query are both dropped and callbackPath is appended as a
// child path.  The query goes too because the callback handler rebuilds the
// redirect_uri for the code exchange from the callback's origin and path
// alone, and the token endpoint requires an exact match.  The result must
// match what the client was registered with at the provider.
func RedirectURI(current *url.URL, callbackPath string) (string, error) {
	const op = "RedirectURI"
	if current == nil {
		return "", fmt.Errorf("%s: current location is nil: %w", op, ErrNilParameter)
	}
	if current.Scheme == "" || current.Host == "" {
		return "", fmt.Errorf("%s: current location %q is not absolute: %w", op, current.String(), ErrInvalidParameter)
	}
	if callbackPath == "" {
		callbackPath = DefaultCallbackPath
	}
	u := *current
	u.Fragment = ""
	u.RawFragment = ""
	u.RawQuery = ""
	u.ForceQuery = false
	u.RawPath = ""
	u.Path = path.Join("/", u.Path, callbackPath)
	return u.String(), nil
}

// reqOptions is the set of available options for AuthURL
type reqOptions struct {
	withResponseType ResponseType
	withState        string
	withUILocales    []language.Tag
}

// reqDefaults is a handy way to get the defaults at runtime and during unit
// tests.
func reqDefaults() reqOptions {
	return reqOptions{withResponseType: ResponseTypeCode}
}

func getReqOpts(opt ...Option) reqOptions {
	opts := reqDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithResponseType overrides the default response_type of "code".
func WithResponseType(rt ResponseType) Option {
	return func(o interface{}) {
		if o, ok := o.(*reqOptions); ok && rt != "" {
			o.withResponseType = rt
		}
	}
}

// WithState adds an oauth2 state parameter to the request.
func WithState(state string) Option {
	return func(o interface{}) {
		if o, ok := o.(*reqOptions); ok {
			o.withState = state
		}
	}
}

// WithUILocales specifies the end-user's preferred languages for the
// provider's login pages, as a space-separated ui_locales parameter.
func WithUILocales(locales ...language.Tag) Option {
	return func(o interface{}) {
		if o, ok := o.(*reqOptions); ok {
			o.withUILocales = locales
		}
	}
}

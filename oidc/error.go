// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrNilParameter      = errors.New("nil parameter")
	ErrInvalidCACert     = errors.New("invalid CA certificate")
	ErrInvalidIssuer     = errors.New("invalid issuer")
	ErrIdGeneratorFailed = errors.New("id generation failed")
	ErrMissingIdToken    = errors.New("id_token is missing")
	ErrInvalidNonce      = errors.New("invalid nonce")
	ErrInvalidAudience   = errors.New("invalid audience")
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedAlg    = errors.New("unsupported signing algorithm")

	// ErrDiscoveryUnavailable means the discovery document could not be
	// fetched or parsed.  It is never fatal: the caller falls back to local
	// credential login.
	ErrDiscoveryUnavailable = errors.New("discovery unavailable")

	// ErrConfigurationIncomplete means discovery succeeded but did not
	// publish an authorization endpoint, so oidc login is disabled.
	ErrConfigurationIncomplete = errors.New("configuration incomplete")

	// ErrReplayNonceMismatch means the nonce in a returned token did not
	// match the pending nonce.  The attempt is rejected without retry.
	ErrReplayNonceMismatch = errors.New("invalid auth token")

	// ErrMalformedToken means a returned id_token couldn't be parsed.  It
	// always comes wrapped together with ErrReplayNonceMismatch.
	ErrMalformedToken = errors.New("invalid token format")

	// ErrProviderReportedError means the provider returned an oauth2 error
	// response.  See ProviderError for the details.
	ErrProviderReportedError = errors.New("provider reported error")

	// ErrExchangeFailed means the backend rejected the code or token.
	ErrExchangeFailed = errors.New("login failed")

	// ErrLinkDerivationFailed means no account-management link could be
	// derived from the issuer.
	ErrLinkDerivationFailed = errors.New("account link derivation failed")
)

// ProviderError represents an oauth2 error response returned on the
// redirect back from the provider.  See:
// https://openid.net/specs/openid-connect-core-1_0.html#AuthError
type ProviderError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Uri         string `json:"error_uri,omitempty"`
}

// DefaultProviderErrorDescription is shown when the provider didn't send an
// error_description.
const DefaultProviderErrorDescription = "Authentication failed"

// Error returns the description the user should see.
func (e *ProviderError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	return DefaultProviderErrorDescription
}

// Is makes errors.Is(err, ErrProviderReportedError) true for a ProviderError.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderReportedError
}

// Alerts reports whether err is one of the kinds surfaced to the user as an
// explicit alert.  Every other kind degrades silently to the local login
// form.
func Alerts(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrProviderReportedError),
		errors.Is(err, ErrReplayNonceMismatch),
		errors.Is(err, ErrExchangeFailed):
		return true
	default:
		return false
	}
}

// AlertMessage returns the text of the alert for err.  ProviderError
// descriptions are passed through verbatim.
func AlertMessage(err error) string {
	var pe *ProviderError
	switch {
	case errors.As(err, &pe):
		return pe.Error()
	case errors.Is(err, ErrMalformedToken):
		return "Invalid token format"
	case errors.Is(err, ErrReplayNonceMismatch):
		return "Invalid auth token"
	case errors.Is(err, ErrExchangeFailed):
		var be *BackendError
		if errors.As(err, &be) && be.Message != "" {
			return be.Message
		}
		return "Login failed"
	default:
		return ""
	}
}

// BackendError carries the message of a rejected exchange or login so it can
// be surfaced to the user.
type BackendError struct {
	Message string
	Wrapped error
}

func (e *BackendError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Wrapped)
	}
	return e.Message
}

func (e *BackendError) Unwrap() error { return e.Wrapped }

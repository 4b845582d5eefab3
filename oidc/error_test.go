// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlerts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		err         error
		wantAlert   bool
		wantMessage string
	}{
		{name: "nil"},
		{name: "discovery", err: fmt.Errorf("op: %w", ErrDiscoveryUnavailable)},
		{name: "incomplete", err: fmt.Errorf("op: %w", ErrConfigurationIncomplete)},
		{name: "link", err: fmt.Errorf("op: %w", ErrLinkDerivationFailed)},
		{
			name:        "provider",
			err:         fmt.Errorf("op: %w", &ProviderError{Code: "access_denied", Description: "User denied access"}),
			wantAlert:   true,
			wantMessage: "User denied access",
		},
		{
			name:        "provider-no-description",
			err:         &ProviderError{Code: "access_denied"},
			wantAlert:   true,
			wantMessage: DefaultProviderErrorDescription,
		},
		{
			name:        "replay",
			err:         fmt.Errorf("op: %w", ErrReplayNonceMismatch),
			wantAlert:   true,
			wantMessage: "Invalid auth token",
		},
		{
			name:        "malformed-token",
			err:         fmt.Errorf("op: %w: %w", ErrMalformedToken, ErrReplayNonceMismatch),
			wantAlert:   true,
			wantMessage: "Invalid token format",
		},
		{
			name:        "exchange",
			err:         fmt.Errorf("op: %w", ErrExchangeFailed),
			wantAlert:   true,
			wantMessage: "Login failed",
		},
		{
			name:        "exchange-backend-message",
			err:         fmt.Errorf("op: %w: %w", ErrExchangeFailed, &BackendError{Message: "Access denied by policy"}),
			wantAlert:   true,
			wantMessage: "Access denied by policy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			assert.Equal(tt.wantAlert, Alerts(tt.err))
			assert.Equal(tt.wantMessage, AlertMessage(tt.err))
		})
	}
}

func TestProviderError(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	err := fmt.Errorf("callback: %w", &ProviderError{Code: "login_required"})
	assert.True(errors.Is(err, ErrProviderReportedError))
	var pe *ProviderError
	assert.True(errors.As(err, &pe))
	assert.Equal("login_required", pe.Code)
}

func TestBackendError(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	inner := errors.New("status 403")
	err := &BackendError{Message: "denied", Wrapped: inner}
	assert.Equal("denied: status 403", err.Error())
	assert.ErrorIs(err, inner)
	assert.Equal("denied", (&BackendError{Message: "denied"}).Error())
}

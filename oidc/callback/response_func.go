// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"net/http"

	"github.com/hashicorp/caplogin/oidc"
)

// SuccessResponseFunc is used by the http handler to create a http response
// when the callback is successful.
//
// The Outcome is either an established session or the manual entry form.  The
// function should use the http.ResponseWriter to send back whatever content
// (headers, html, JSON, etc) it wishes to the client that originated the oidc
// flow.
type SuccessResponseFunc func(o *Outcome, w http.ResponseWriter, req *http.Request)

// ErrorResponseFunc is used by the http handler to create a http response
// when the callback fails.
//
// The function gets the provider's error response when the provider reported
// one, otherwise the error raised while processing the request.  Exactly one
// of them is set.
type ErrorResponseFunc func(respErr *oidc.ProviderError, e error, w http.ResponseWriter, req *http.Request)

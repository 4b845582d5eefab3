// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package login

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultLoginPath is the path of the login page.
	DefaultLoginPath = "/login"

	// DefaultManualEntryPath is the path of the page which collects a client
	// id from the user when none is pre-registered.
	DefaultManualEntryPath = DefaultLoginPath + "/openid"

	// DefaultHomePath is where an authenticated user is sent.
	DefaultHomePath = "/"
)

// RequestURL returns the absolute URL the client requested.  Server-side
// request URLs carry neither scheme nor host, so they're recovered from the
// connection and the X-Forwarded-Proto header.
func RequestURL(req *http.Request) *url.URL {
	u := *req.URL
	if u.Host == "" {
		u.Host = req.Host
	}
	if u.Scheme == "" {
		switch {
		case req.TLS != nil:
			u.Scheme = "https"
		case req.Header.Get("X-Forwarded-Proto") != "":
			u.Scheme = strings.ToLower(strings.TrimSpace(strings.Split(req.Header.Get("X-Forwarded-Proto"), ",")[0]))
		default:
			u.Scheme = "http"
		}
	}
	return &u
}

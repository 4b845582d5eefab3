// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
login is a package that decides what a browser arriving at the login page
sees: the provider's login page (via a redirect), the local login form or,
when already authenticated, home.

A Controller starts in StateLoading and settles in one of
StateRedirectingToProvider, StateFormVisible or StateHome.  Resolve makes the
decision synchronously, which suits http handlers.  Mount makes it in the
background and reports it to a Renderer, navigating only after the render
call returns and only while the Controller is still mounted.

oidc is always an enhancement here: when discovery fails, or the provider
isn't configured, the local login form is shown and remains usable.
*/
package login

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package caplogin_test

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp/caplogin/account"
	"github.com/hashicorp/caplogin/login"
	"github.com/hashicorp/caplogin/oidc"
	"github.com/hashicorp/caplogin/oidc/callback"
	"github.com/hashicorp/caplogin/storage"
)

func Example_login() {
	ctx := context.Background()

	// Your relying party's backend: discovery, the code/id_token exchange and
	// sessions.
	var backend login.Backend

	// Login state is kept per browser.
	m := storage.NewMemory()
	defer m.Stop()
	s, err := storage.Scoped(m, "browser-id-from-a-cookie")
	if err != nil {
		// handle error
	}
	nonces, err := oidc.NewNonceStore(s)
	if err != nil {
		// handle error
	}
	gate, err := oidc.NewLogoutGate(s)
	if err != nil {
		// handle error
	}

	c, err := login.NewController(backend, nonces, gate)
	if err != nil {
		// handle error
	}

	// Decide what the login page shows.  When a client id is configured the
	// browser goes straight to the provider and the form is never shown.
	current, _ := url.Parse("https://minio.example.com/login")
	d, err := c.Resolve(ctx, current)
	if err != nil {
		// the request was cancelled
	}
	switch d.State {
	case login.StateRedirectingToProvider, login.StateHome:
		fmt.Println("navigate to:", d.RedirectURL)
	case login.StateFormVisible:
		fmt.Println("show the form, oidc button:", d.Form.ShowOpenID)
	}

	// Handle the provider's redirect back.
	h, err := callback.NewHandler(nonces, backend)
	if err != nil {
		// handle error
	}
	callbackFn, err := callback.NewHTTPHandler(
		h,
		func(o *callback.Outcome, w http.ResponseWriter, req *http.Request) {
			// a session was established, or the manual client id form is shown
		},
		func(pe *oidc.ProviderError, e error, w http.ResponseWriter, req *http.Request) {
			if pe != nil {
				e = pe
			}
			// show the login form with an alert
			fmt.Println("alert:", oidc.AlertMessage(e))
		},
	)
	if err != nil {
		// handle error
	}
	http.HandleFunc(callback.DefaultCallbackPath, callbackFn)

	// Logging out forces the provider's login prompt on the next attempt.
	if err := c.Logout(ctx); err != nil {
		// handle error
	}
}

func Example_changePassword() {
	r, err := account.NewResolver(account.KeycloakLegacy, account.WithAutoClick())
	if err != nil {
		// handle error
	}
	t := r.ChangePassword(&oidc.DiscoveryDocument{
		Issuer: "https://idp.example.com/auth/realms/minio",
	})
	fmt.Println(t.Kind, t.URL)
	// Output:
	// provider https://idp.example.com/auth/realms/minio/account/?auto_click=true#/security/signingin
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/caplogin/account"
	"github.com/hashicorp/caplogin/login"
	"github.com/hashicorp/caplogin/oidc"
	"github.com/hashicorp/caplogin/oidc/callback"
	"github.com/hashicorp/caplogin/storage"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-uuid"
)

// server is the example relying party.  Per-browser login state (pending
// nonce, logout flag) lives in store under the browser cookie's id.
type server struct {
	cfg       *config
	logger    hclog.Logger
	provider  *oidc.Provider
	discovery *oidc.DiscoveryClient
	accounts  *account.Resolver
	store     storage.Store
	sessions  storage.Store
	now       func() time.Time
}

func newServer(cfg *config, store storage.Store, logger hclog.Logger) (*server, error) {
	const op = "newServer"
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	pc, err := oidc.NewConfig(
		cfg.Issuer,
		cfg.ClientID,
		oidc.ClientSecret(cfg.ClientSecret),
		cfg.algs(),
		oidc.WithScopes(cfg.Scopes...),
		oidc.WithProviderCA(cfg.ProviderCA),
		oidc.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p, err := oidc.NewProvider(pc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	d, err := oidc.NewDiscoveryClient(p, oidc.WithCacheTTL(cfg.DiscoveryCacheTTL), oidc.WithLogger(logger))
	if err != nil {
		p.Done()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	profile, err := account.ProfileByName(cfg.AccountProfile)
	if err != nil {
		p.Done()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resolverOpts := []oidc.Option{account.WithLogger(logger)}
	if cfg.AccountAutoClick {
		resolverOpts = append(resolverOpts, account.WithAutoClick())
	}
	r, err := account.NewResolver(profile, resolverOpts...)
	if err != nil {
		p.Done()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sessions, err := storage.Scoped(store, "session")
	if err != nil {
		p.Done()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &server{
		cfg:       cfg,
		logger:    logger,
		provider:  p,
		discovery: d,
		accounts:  r,
		store:     store,
		sessions:  sessions,
		now:       time.Now,
	}, nil
}

// Close releases the provider.
func (s *server) Close() {
	s.provider.Done()
}

// browser is the login machinery of one request, bound to the browser
// cookie.
type browser struct {
	backend    *browserBackend
	nonces     *oidc.NonceStore
	gate       *oidc.LogoutGate
	controller *login.Controller
	callback   *callback.Handler
}

func (s *server) browser(w http.ResponseWriter, req *http.Request) (*browser, error) {
	const op = "server.browser"
	b := &browserBackend{s: s, w: w, req: req}

	var browserID string
	if c, err := req.Cookie(browserCookie); err == nil && c.Value != "" {
		browserID = c.Value
	} else {
		if browserID, err = uuid.GenerateUUID(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		http.SetCookie(w, b.cookie(browserCookie, browserID, 0))
	}
	scoped, err := storage.Scoped(s.store, "browser/"+browserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	n, err := oidc.NewNonceStore(scoped, oidc.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	g, err := oidc.NewLogoutGate(scoped, oidc.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	locales, err := s.cfg.locales()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	controllerOpts := []oidc.Option{
		login.WithLogger(s.logger),
		login.WithDiscovery(s.discovery),
		login.WithAutoRedirect(s.cfg.AutoRedirect),
		login.WithResponseType(oidc.ResponseType(s.cfg.ResponseType)),
		login.WithUILocales(locales...),
		login.WithRedirectURI(s.cfg.RedirectURI),
	}
	c, err := login.NewController(b, n, g, controllerOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	h, err := callback.NewHandler(n, b,
		callback.WithLogger(s.logger),
		callback.WithDiscovery(s.discovery),
		callback.WithRedirectURI(s.cfg.RedirectURI),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &browser{backend: b, nonces: n, gate: g, controller: c, callback: h}, nil
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package login

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/hashicorp/caplogin/oidc"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/text/language"
)

// Renderer shows a Decision.  Render must return once the view is
// committed.
type Renderer interface {
	Render(d *Decision)
}

// RendererFunc adapts a func to a Renderer.
type RendererFunc func(d *Decision)

// Render calls f(d).
func (f RendererFunc) Render(d *Decision) { f(d) }

// Navigator sends the browser to a URL.  It must not call back into the
// Controller.
type Navigator interface {
	Navigate(url string)
}

// NavigatorFunc adapts a func to a Navigator.
type NavigatorFunc func(url string)

// Navigate calls f(url).
func (f NavigatorFunc) Navigate(url string) { f(url) }

// Controller is the login page state machine for a single browser.
type Controller struct {
	backend   Backend
	discovery *oidc.DiscoveryClient
	nonces    *oidc.NonceStore
	gate      *oidc.LogoutGate
	logger    hclog.Logger

	autoRedirect    bool
	responseType    oidc.ResponseType
	uiLocales       []language.Tag
	loginPath       string
	homePath        string
	manualEntryPath string
	redirectURI     string

	mu      sync.Mutex
	mounted bool
	alive   bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewController creates a Controller.  The NonceStore and LogoutGate must be
// scoped to the same browser as the Backend.
// Supported options: WithLogger, WithDiscovery, WithAutoRedirect,
// WithResponseType, WithUILocales, WithLoginPath, WithHomePath,
// WithManualEntryPath, WithRedirectURI
func NewController(b Backend, n *oidc.NonceStore, g *oidc.LogoutGate, opt ...oidc.Option) (*Controller, error) {
	const op = "login.NewController"
	switch {
	case b == nil:
		return nil, fmt.Errorf("%s: backend is nil: %w", op, oidc.ErrNilParameter)
	case n == nil:
		return nil, fmt.Errorf("%s: nonce store is nil: %w", op, oidc.ErrNilParameter)
	case g == nil:
		return nil, fmt.Errorf("%s: logout gate is nil: %w", op, oidc.ErrNilParameter)
	}
	opts := getControllerOpts(opt...)
	if opts.withRedirectURI != "" {
		if u, err := url.Parse(opts.withRedirectURI); err != nil || !u.IsAbs() {
			return nil, fmt.Errorf("%s: redirect uri %q is not absolute: %w", op, opts.withRedirectURI, oidc.ErrInvalidParameter)
		}
	}
	logger := opts.withLogger.Named("controller")
	d := opts.withDiscovery
	if d == nil {
		var err error
		if d, err = oidc.NewDiscoveryClient(b, oidc.WithLogger(logger)); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return &Controller{
		backend:         b,
		discovery:       d,
		nonces:          n,
		gate:            g,
		logger:          logger,
		autoRedirect:    opts.withAutoRedirect,
		responseType:    opts.withResponseType,
		uiLocales:       opts.withUILocales,
		loginPath:       opts.withLoginPath,
		homePath:        opts.withHomePath,
		manualEntryPath: opts.withManualEntryPath,
		redirectURI:     opts.withRedirectURI,
	}, nil
}

// Resolve decides the login page's state for the current location.  An
// authenticated user goes home.  Otherwise, when the provider is configured,
// a client id is known and auto redirect isn't suppressed, the returned
// Decision redirects to the provider; its nonce is already persisted.
// Everything else, including every discovery failure, shows the form.
//
// An error is only returned when ctx is done.
func (c *Controller) Resolve(ctx context.Context, current *url.URL) (*Decision, error) {
	const op = "Controller.Resolve"
	if current == nil {
		return nil, fmt.Errorf("%s: current location is nil: %w", op, oidc.ErrNilParameter)
	}
	loggedIn, err := c.backend.LoggedIn(ctx)
	if err != nil {
		c.logger.Warn("unable to check for an existing session", "error", err)
	}
	if loggedIn {
		return &Decision{State: StateHome, RedirectURL: c.homePath}, nil
	}

	d, err := c.discovery.Fetch(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s: %w", op, ctxErr)
	}
	if err != nil {
		c.logger.Warn("continuing with local login", "error", err)
		return c.form(nil, ""), nil
	}
	switch {
	case !d.Configured():
		return c.form(d, ""), nil
	case !c.autoRedirect || c.onCallback(current):
		c.logger.Debug("auto redirect suppressed", "path", current.Path)
		return c.form(d, ""), nil
	case !d.HasClient():
		return c.form(d, ""), nil
	}

	sc, err := c.StartAuthorization(ctx, current, d, d.ClientID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", op, ctxErr)
		}
		c.logger.Error("unable to start authorization, continuing with local login", "error", err)
		return c.form(d, ""), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.abandon(ctx, sc)
		return nil, fmt.Errorf("%s: %w", op, ctxErr)
	}
	return &Decision{
		State:       StateRedirectingToProvider,
		RedirectURL: sc.AuthURL,
		Session:     sc,
	}, nil
}

// onCallback reports whether the location is the provider's callback, which
// must never bounce straight back to the provider.
func (c *Controller) onCallback(current *url.URL) bool {
	return strings.Contains(current.Path, oidc.DefaultCallbackPath)
}

func (c *Controller) form(d *oidc.Discovery, alert string) *Decision {
	f := &FormView{Alert: alert}
	if d.Configured() {
		f.ShowOpenID = true
		f.ClientID = d.ClientID
		f.AuthorizationEndpoint = d.Document.AuthorizationEndpoint
		if !d.HasClient() {
			f.ManualEntryPath = c.manualEntryPath
		}
	}
	return &Decision{State: StateFormVisible, Form: f}
}

// Mount renders StateLoading, then resolves the decision in the background.
// The decision is rendered, and once Render returns the browser is
// navigated, but only if Unmount hasn't been called in the meantime.
func (c *Controller) Mount(ctx context.Context, current *url.URL, r Renderer, n Navigator) error {
	const op = "Controller.Mount"
	switch {
	case current == nil:
		return fmt.Errorf("%s: current location is nil: %w", op, oidc.ErrNilParameter)
	case r == nil:
		return fmt.Errorf("%s: renderer is nil: %w", op, oidc.ErrNilParameter)
	case n == nil:
		return fmt.Errorf("%s: navigator is nil: %w", op, oidc.ErrNilParameter)
	}

	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", op, ErrAlreadyMounted)
	}
	ctx, cancel := context.WithCancel(ctx)
	c.mounted, c.alive = true, true
	c.cancel = cancel
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()

	r.Render(&Decision{State: StateLoading})

	go func() {
		defer close(done)
		defer cancel()
		d, err := c.Resolve(ctx, current)
		if err != nil {
			c.logger.Debug("unmounted before the decision was made", "error", err)
			return
		}
		if !c.whileAlive(func() { r.Render(d) }) {
			if d.Session != nil {
				c.abandon(ctx, d.Session)
			}
			return
		}
		if d.State.Navigates() && !c.whileAlive(func() { n.Navigate(d.RedirectURL) }) && d.Session != nil {
			c.abandon(ctx, d.Session)
		}
	}()
	return nil
}

// whileAlive runs fn if the Controller is still mounted, holding the lock so
// Unmount can't interleave.
func (c *Controller) whileAlive(fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive {
		c.logger.Debug("dropping stale result")
		return false
	}
	fn()
	return true
}

// Unmount tears the page down.  Once it returns, nothing started by Mount
// renders or navigates.
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alive = false
	if c.cancel != nil {
		c.cancel()
	}
}

// Done is closed when the work started by Mount has finished.  It's nil
// before Mount.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

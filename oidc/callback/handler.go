// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/hashicorp/caplogin/login"
	"github.com/hashicorp/caplogin/oidc"
	"github.com/hashicorp/go-hclog"
)

// DefaultCallbackPath is the path the provider redirects back to.
const DefaultCallbackPath = "/login/" + oidc.DefaultCallbackPath

// Exchanger exchanges a provider result for a session.  login.Backend
// satisfies it.
type Exchanger interface {
	LoginSTS(ctx context.Context, r *login.STSRequest) (*login.Session, error)
}

// Kind of Outcome.
type Kind int

const (
	// KindNone means the callback carried nothing to act on.
	KindNone Kind = iota

	// KindSession means a session was established.
	KindSession

	// KindManualForm means the manual client id form should be shown.
	KindManualForm
)

func (k Kind) String() string {
	switch k {
	case KindSession:
		return "session"
	case KindManualForm:
		return "manual-form"
	default:
		return "none"
	}
}

// Outcome of a successful Handle.
type Outcome struct {
	Kind Kind

	// Flow is the flow which produced Session.
	Flow oidc.ResponseType

	// Session is set for KindSession.
	Session *login.Session

	// Discovery populates the manual form, and is only set for
	// KindManualForm when discovery succeeded.
	Discovery *oidc.Discovery
}

// Handler handles the return leg of an authorization request.  It is
// concurrently safe when its NonceStore and Exchanger are.
type Handler struct {
	nonces          *oidc.NonceStore
	exchanger       Exchanger
	discovery       *oidc.DiscoveryClient
	callbackPath    string
	redirectURI     string
	manualEntryPath string
	logger          hclog.Logger
}

// NewHandler creates a Handler.
// Supported options: WithLogger, WithCallbackPath, WithRedirectURI,
// WithDiscovery, WithManualEntryPath
func NewHandler(n *oidc.NonceStore, e Exchanger, opt ...oidc.Option) (*Handler, error) {
	const op = "callback.NewHandler"
	switch {
	case n == nil:
		return nil, fmt.Errorf("%s: nonce store is nil: %w", op, oidc.ErrNilParameter)
	case e == nil:
		return nil, fmt.Errorf("%s: exchanger is nil: %w", op, oidc.ErrNilParameter)
	}
	opts := getHandlerOpts(opt...)
	if opts.withRedirectURI != "" {
		if u, err := url.Parse(opts.withRedirectURI); err != nil || !u.IsAbs() {
			return nil, fmt.Errorf("%s: redirect uri %q is not absolute: %w", op, opts.withRedirectURI, oidc.ErrInvalidParameter)
		}
	}
	return &Handler{
		nonces:          n,
		exchanger:       e,
		discovery:       opts.withDiscovery,
		callbackPath:    opts.withCallbackPath,
		redirectURI:     opts.withRedirectURI,
		manualEntryPath: opts.withManualEntryPath,
		logger:          opts.withLogger.Named("callback"),
	}, nil
}

// Handle runs exactly one branch for callbackURL, in order of precedence:
// provider error, implicit flow id_token, authorization code, and (only when
// interactive) the manual entry form.
//
// Errors are one of oidc.ErrProviderReportedError (as a *oidc.ProviderError),
// oidc.ErrReplayNonceMismatch or oidc.ErrExchangeFailed, all of which should
// be shown to the user (see oidc.AlertMessage).
func (h *Handler) Handle(ctx context.Context, callbackURL *url.URL, interactive bool) (*Outcome, error) {
	const op = "Handler.Handle"
	if callbackURL == nil {
		return nil, fmt.Errorf("%s: callback url is nil: %w", op, oidc.ErrNilParameter)
	}
	fragment, err := url.ParseQuery(callbackURL.Fragment)
	if err != nil {
		h.logger.Debug("malformed callback fragment", "error", err)
	}
	query := callbackURL.Query()

	for _, params := range []url.Values{fragment, query} {
		if pe := providerError(params); pe != nil {
			h.logger.Warn("provider returned an error", "error", pe.Code, "description", pe.Description)
			return nil, fmt.Errorf("%s: %w", op, pe)
		}
	}
	if tk := fragment.Get("id_token"); tk != "" {
		return h.implicit(ctx, oidc.IdToken(tk))
	}
	if code := query.Get("code"); code != "" {
		return h.authCode(ctx, callbackURL, code)
	}
	if interactive {
		return h.manualForm(ctx), nil
	}
	return &Outcome{Kind: KindNone}, nil
}

// ManualEntryPath is the path of the interactive manual entry page.
func (h *Handler) ManualEntryPath() string { return h.manualEntryPath }

func (h *Handler) implicit(ctx context.Context, tk oidc.IdToken) (*Outcome, error) {
	const op = "Handler.implicit"
	var nonce string
	claims, err := tk.UnverifiedClaims()
	if err != nil {
		h.logger.Warn("invalid id_token format", "error", err)
	} else {
		nonce = claims.Nonce
	}
	// the pending nonce is consumed even when the token is malformed, so a
	// second attempt can't reuse it.
	ok, verr := h.nonces.ConsumeAndVerify(ctx, nonce)
	switch {
	case verr != nil:
		return nil, fmt.Errorf("%s: unable to verify nonce: %w: %s", op, oidc.ErrReplayNonceMismatch, verr)
	case err != nil:
		return nil, fmt.Errorf("%s: %w: %w: %s", op, oidc.ErrMalformedToken, oidc.ErrReplayNonceMismatch, err)
	case !ok:
		h.logger.Warn("id_token nonce does not match the pending nonce")
		return nil, fmt.Errorf("%s: nonce mismatch: %w", op, oidc.ErrReplayNonceMismatch)
	}
	s, err := h.exchanger.LoginSTS(ctx, &login.STSRequest{Token: tk, Nonce: nonce})
	if err != nil {
		h.logger.Error("id_token exchange failed", "error", err)
		return nil, fmt.Errorf("%s: %w: %w", op, oidc.ErrExchangeFailed, err)
	}
	return &Outcome{Kind: KindSession, Flow: oidc.ResponseTypeIDToken, Session: s}, nil
}

func (h *Handler) authCode(ctx context.Context, callbackURL *url.URL, code string) (*Outcome, error) {
	const op = "Handler.authCode"
	redirectURI, err := h.codeRedirectURI(callbackURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, oidc.ErrExchangeFailed, err)
	}
	nonce, _, err := h.nonces.Peek(ctx)
	if err != nil {
		h.logger.Warn("unable to read pending nonce", "error", err)
	}
	s, err := h.exchanger.LoginSTS(ctx, &login.STSRequest{
		Code:        code,
		RedirectURI: redirectURI,
		Nonce:       nonce,
	})
	if err != nil {
		h.logger.Error("authorization code exchange failed", "error", err)
		return nil, fmt.Errorf("%s: %w: %w", op, oidc.ErrExchangeFailed, err)
	}
	if err := h.nonces.Clear(ctx); err != nil {
		h.logger.Warn("unable to clear nonce", "error", err)
	}
	return &Outcome{Kind: KindSession, Flow: oidc.ResponseTypeCode, Session: s}, nil
}

func (h *Handler) manualForm(ctx context.Context) *Outcome {
	out := &Outcome{Kind: KindManualForm}
	if h.discovery == nil {
		return out
	}
	d, err := h.discovery.Fetch(ctx)
	if err != nil {
		h.logger.Warn("failed to load OpenID configuration", "error", err)
		return out
	}
	out.Discovery = d
	return out
}

// codeRedirectURI returns the redirect_uri the code was issued for: the
// configured one, or the callback's origin joined with the callback path.
func (h *Handler) codeRedirectURI(callbackURL *url.URL) (string, error) {
	const op = "Handler.codeRedirectURI"
	if h.redirectURI != "" {
		return h.redirectURI, nil
	}
	if callbackURL.Scheme == "" || callbackURL.Host == "" {
		return "", fmt.Errorf("%s: callback url %q is not absolute: %w", op, callbackURL.String(), oidc.ErrInvalidParameter)
	}
	u := url.URL{
		Scheme: callbackURL.Scheme,
		Host:   callbackURL.Host,
		Path:   path.Join("/", h.callbackPath),
	}
	return u.String(), nil
}

func providerError(v url.Values) *oidc.ProviderError {
	if v.Get("error") == "" {
		return nil
	}
	return &oidc.ProviderError{
		Code:        v.Get("error"),
		Description: v.Get("error_description"),
		Uri:         v.Get("error_uri"),
	}
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/caplogin/login"
	"github.com/hashicorp/caplogin/oidc"
	"github.com/hashicorp/caplogin/sdk/id"
	"github.com/hashicorp/caplogin/storage"
)

const (
	sessionCookie = "caplogin_session"
	browserCookie = "caplogin_browser"
)

// browserBackend is the login.Backend of a single request.  Sessions live in
// the server's store and are referenced by the session cookie.
type browserBackend struct {
	s   *server
	w   http.ResponseWriter
	req *http.Request
}

var _ login.Backend = (*browserBackend)(nil)

func (b *browserBackend) GetDiscoveryDoc(ctx context.Context) (*oidc.DiscoveryResponse, error) {
	return b.s.provider.GetDiscoveryDoc(ctx)
}

func (b *browserBackend) Login(ctx context.Context, c login.Credentials) (*login.Session, error) {
	const op = "browserBackend.Login"
	if b.s.cfg.AccessKey == "" {
		return nil, fmt.Errorf("%s: %w", op, &oidc.BackendError{Message: "Local login is disabled"})
	}
	accessOK := subtle.ConstantTimeCompare([]byte(c.AccessKey), []byte(b.s.cfg.AccessKey)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(c.SecretKey), []byte(b.s.cfg.SecretKey)) == 1
	if !accessOK || !secretOK {
		return nil, fmt.Errorf("%s: %w", op, &oidc.BackendError{Message: "Invalid login credentials"})
	}
	return b.startSession(ctx, c.AccessKey)
}

func (b *browserBackend) LoginSTS(ctx context.Context, r *login.STSRequest) (*login.Session, error) {
	const op = "browserBackend.LoginSTS"
	var (
		t   *oidc.Token
		err error
	)
	switch {
	case r == nil:
		return nil, fmt.Errorf("%s: request is nil: %w", op, oidc.ErrNilParameter)
	case r.Code != "":
		t, err = b.s.provider.Exchange(ctx, r.Code, r.RedirectURI, r.Nonce)
	case r.Token != "":
		t, err = b.s.provider.VerifyIdToken(ctx, r.Token, r.Nonce)
	default:
		return nil, fmt.Errorf("%s: neither a code nor an id_token: %w", op, oidc.ErrInvalidParameter)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, &oidc.BackendError{Message: "Provider response could not be verified", Wrapped: err})
	}
	return b.startSession(ctx, t.Subject)
}

func (b *browserBackend) Logout(ctx context.Context) error {
	const op = "browserBackend.Logout"
	http.SetCookie(b.w, b.cookie(sessionCookie, "", -1))
	c, err := b.req.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	if err := b.s.sessions.Delete(ctx, c.Value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (b *browserBackend) LoggedIn(ctx context.Context) (bool, error) {
	s, err := b.session(ctx)
	if err != nil {
		return false, err
	}
	return s != nil, nil
}

// session returns the current session, or nil when there's none.
func (b *browserBackend) session(ctx context.Context) (*login.Session, error) {
	const op = "browserBackend.session"
	c, err := b.req.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return nil, nil
	}
	raw, err := b.s.sessions.Get(ctx, c.Value)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var s login.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("%s: unable to decode session: %w", op, err)
	}
	return &s, nil
}

func (b *browserBackend) startSession(ctx context.Context, subject string) (*login.Session, error) {
	const op = "browserBackend.startSession"
	sid, err := id.New("s")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s := &login.Session{
		ID:      sid,
		Subject: subject,
		Expiry:  b.s.now().Add(b.s.cfg.SessionTTL),
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := b.s.sessions.Set(ctx, sid, string(raw), b.s.cfg.SessionTTL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	http.SetCookie(b.w, b.cookie(sessionCookie, sid, int(b.s.cfg.SessionTTL.Seconds())))
	b.s.logger.Info("session started", "subject", subject)
	return s, nil
}

func (b *browserBackend) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   b.req.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
}

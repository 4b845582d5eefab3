// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/caplogin/login"
	"github.com/hashicorp/caplogin/oidc"
	"github.com/hashicorp/caplogin/oidc/callback"
)

// The views returned are JSON; rendering them is up to the browser app.

type sessionView struct {
	RedirectURL string         `json:"redirectURL,omitempty"`
	Session     *login.Session `json:"session,omitempty"`
}

type callbackView struct {
	Kind        string          `json:"kind"`
	RedirectURL string          `json:"redirectURL,omitempty"`
	Session     *login.Session  `json:"session,omitempty"`
	Form        *login.FormView `json:"form,omitempty"`
}

type targetView struct {
	Kind string `json:"kind"`
	URL  string `json:"url,omitempty"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get(login.DefaultHomePath, s.handleHome)
	r.Get(login.DefaultLoginPath, s.withBrowser(s.handleLogin))
	r.Post(login.DefaultLoginPath, s.withBrowser(s.handleLocalLogin))
	r.Get(login.DefaultManualEntryPath, s.withBrowser(s.handleCallback))
	r.Post(login.DefaultManualEntryPath, s.withBrowser(s.handleManualClientID))
	r.Get(callback.DefaultCallbackPath, s.withBrowser(s.handleCallback))
	r.Post(callback.DefaultCallbackPath, s.withBrowser(s.handleCallback))
	r.Post("/logout", s.withBrowser(s.handleLogout))
	r.Get("/account/password", s.withBrowser(s.handleChangePassword))
	return r
}

// logRequests logs every request at debug level.
func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, req)
		s.logger.Debug("request",
			"request_id", middleware.GetReqID(req.Context()),
			"method", req.Method,
			"path", req.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

type browserHandlerFunc func(b *browser, w http.ResponseWriter, req *http.Request)

func (s *server) withBrowser(fn browserHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		b, err := s.browser(w, req)
		if err != nil {
			s.logger.Error("unable to set up login", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		fn(b, w, req)
	}
}

func (s *server) handleHome(w http.ResponseWriter, req *http.Request) {
	b := &browserBackend{s: s, w: w, req: req}
	sess, err := b.session(req.Context())
	switch {
	case err != nil:
		s.logger.Error("unable to read session", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	case sess == nil:
		s.writeJSON(w, http.StatusUnauthorized, sessionView{RedirectURL: login.DefaultLoginPath})
	default:
		s.writeJSON(w, http.StatusOK, sessionView{Session: sess})
	}
}

func (s *server) handleLogin(b *browser, w http.ResponseWriter, req *http.Request) {
	d, err := b.controller.Resolve(req.Context(), login.RequestURL(req))
	if err != nil {
		// the request was cancelled
		s.logger.Debug("login page abandoned", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

func (s *server) handleLocalLogin(b *browser, w http.ResponseWriter, req *http.Request) {
	sess, err := b.controller.LocalLogin(req.Context(), login.Credentials{
		AccessKey: req.FormValue("access_key"),
		SecretKey: oidc.ClientSecret(req.FormValue("secret_key")),
	})
	switch {
	case errors.Is(err, login.ErrEmptyAccessKey), errors.Is(err, login.ErrEmptySecretKey):
		s.writeForm(w, req, http.StatusBadRequest, validationMessage(err))
	case err != nil:
		s.writeForm(w, req, http.StatusUnauthorized, oidc.AlertMessage(err))
	default:
		s.writeJSON(w, http.StatusOK, sessionView{RedirectURL: login.DefaultHomePath, Session: sess})
	}
}

func (s *server) handleManualClientID(b *browser, w http.ResponseWriter, req *http.Request) {
	d, err := b.controller.SubmitManualClientID(req.Context(), login.RequestURL(req), req.FormValue("client_id"))
	switch {
	case errors.Is(err, login.ErrEmptyClientID):
		s.writeJSON(w, http.StatusBadRequest, callbackView{
			Kind: callback.KindManualForm.String(),
			Form: &login.FormView{ManualEntryPath: login.DefaultManualEntryPath, Alert: login.ErrEmptyClientID.Error()},
		})
	case err != nil:
		s.logger.Error("unable to start authorization", "error", err)
		s.writeJSON(w, http.StatusBadGateway, callbackView{
			Kind: callback.KindManualForm.String(),
			Form: &login.FormView{ManualEntryPath: login.DefaultManualEntryPath, Alert: "Login failed"},
		})
	default:
		s.writeJSON(w, http.StatusOK, d)
	}
}

func (s *server) handleCallback(b *browser, w http.ResponseWriter, req *http.Request) {
	h, err := callback.NewHTTPHandler(b.callback, s.callbackSuccess, s.callbackError)
	if err != nil {
		s.logger.Error("unable to create callback handler", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h(w, req)
}

func (s *server) callbackSuccess(o *callback.Outcome, w http.ResponseWriter, _ *http.Request) {
	v := callbackView{Kind: o.Kind.String()}
	switch o.Kind {
	case callback.KindSession:
		v.RedirectURL = login.DefaultHomePath
		v.Session = o.Session
	case callback.KindManualForm:
		v.Form = &login.FormView{ManualEntryPath: login.DefaultManualEntryPath}
		if o.Discovery.Configured() {
			v.Form.ShowOpenID = true
			v.Form.AuthorizationEndpoint = o.Discovery.Document.AuthorizationEndpoint
		}
	default:
		v.RedirectURL = login.DefaultLoginPath
	}
	s.writeJSON(w, http.StatusOK, v)
}

// callbackError shows the login form with the alert for the failure.
func (s *server) callbackError(pe *oidc.ProviderError, e error, w http.ResponseWriter, req *http.Request) {
	err := e
	if pe != nil {
		err = pe
	}
	status, msg := http.StatusUnauthorized, oidc.AlertMessage(err)
	if !oidc.Alerts(err) {
		s.logger.Error("callback failed", "error", err)
		status, msg = http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
	s.writeForm(w, req, status, msg)
}

func (s *server) handleLogout(b *browser, w http.ResponseWriter, req *http.Request) {
	if err := b.controller.Logout(req.Context()); err != nil {
		s.logger.Error("logout failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionView{RedirectURL: login.DefaultLoginPath})
}

func (s *server) handleChangePassword(b *browser, w http.ResponseWriter, req *http.Request) {
	t := b.controller.ChangePassword(req.Context(), s.accounts)
	s.writeJSON(w, http.StatusOK, targetView{Kind: t.Kind.String(), URL: t.URL})
}

// writeForm responds with the login form carrying alert.  The form is
// resolved like the login page, without ever redirecting.
func (s *server) writeForm(w http.ResponseWriter, req *http.Request, status int, alert string) {
	d := &login.Decision{State: login.StateFormVisible, Form: &login.FormView{}}
	if disc, err := s.discovery.Fetch(req.Context()); err == nil && disc.Configured() {
		d.Form.ShowOpenID = true
		d.Form.ClientID = disc.ClientID
		d.Form.AuthorizationEndpoint = disc.Document.AuthorizationEndpoint
		if !disc.HasClient() {
			d.Form.ManualEntryPath = login.DefaultManualEntryPath
		}
	}
	d.Form.Alert = alert
	s.writeJSON(w, status, d)
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("unable to write response", "error", err)
	}
}

// validationMessage is the user facing part of a login validation error.
func validationMessage(err error) string {
	for _, target := range []error{login.ErrEmptyAccessKey, login.ErrEmptySecretKey} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return strings.TrimSpace(err.Error())
}

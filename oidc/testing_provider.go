// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"bytes"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/caplogin/internal/strutils"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

// TestProvider is a local https server that plays the part of an oidc
// provider, which makes writing tests much easier.  It publishes a discovery
// document and supports the authorization code and implicit flows.  A big
// thanks to the original contributors of Consul's oauthtest package which
// this started from.
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string

	jwks *jose.JSONWebKeySet

	mu                  sync.Mutex
	allowedRedirectURIs []string
	replySubject        string
	clientID            string
	clientSecret        string
	expectedAuthCode    string
	expectedAuthNonce   string
	scopesSupported     []string
	omitAuthEndpoint    bool
	omitIDToken         bool
	customClaims        map[string]interface{}

	ecdsaPublicKey  string
	ecdsaPrivateKey string

	t *testing.T
}

// StartTestProvider creates and starts a disposable TestProvider.  It is
// stopped by the test's cleanup.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	require := require.New(t)

	p := &TestProvider{
		t:                   t,
		allowedRedirectURIs: []string{"https://example.com"},
		replySubject:        "alice@example.com",
	}
	p.ecdsaPublicKey, p.ecdsaPrivateKey = TestGenerateKeys(t)
	p.jwks = testJWKS(t, p.ecdsaPublicKey)

	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: p.httpServer.Certificate().Raw})
	require.NoError(err)
	p.caCert = buf.String()
	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// SetClientCreds is for configuring the client information required for the
// OIDC workflows.
func (p *TestProvider) SetClientCreds(clientID, clientSecret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = clientID
	p.clientSecret = clientSecret
}

// SetExpectedAuthCode configures the auth code to return from /auth and the
// allowed auth code for /token.
func (p *TestProvider) SetExpectedAuthCode(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedAuthCode = code
}

// SetExpectedAuthNonce configures the nonce value required for /auth and
// embedded in the id_tokens issued.
func (p *TestProvider) SetExpectedAuthNonce(nonce string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedAuthNonce = nonce
}

// SetAllowedRedirectURIs allows you to configure the allowed redirect URIs for
// the OIDC workflow. If not configured a sample of "https://example.com" is
// used.
func (p *TestProvider) SetAllowedRedirectURIs(uris ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowedRedirectURIs = uris
}

// SetScopesSupported configures the discovery document's scopes_supported.
func (p *TestProvider) SetScopesSupported(scopes ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scopesSupported = scopes
}

// OmitAuthEndpoint removes authorization_endpoint from the discovery
// document.
func (p *TestProvider) OmitAuthEndpoint() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitAuthEndpoint = true
}

// OmitIDTokens forces an error state where the /token endpoint does not return
// id_token.
func (p *TestProvider) OmitIDTokens() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitIDToken = true
}

// SetCustomClaims lets you set claims to return in the JWT issued by the OIDC
// workflow.
func (p *TestProvider) SetCustomClaims(customClaims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customClaims = customClaims
}

// Addr returns the current base URL for the test provider's running webserver.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// CACert returns the pem-encoded CA certificate used by the test provider's
// HTTPS server.
func (p *TestProvider) CACert() string { return p.caCert }

// SigningKeys returns the test provider's pem-encoded keys used to sign JWTs.
func (p *TestProvider) SigningKeys() (pub, priv string) {
	return p.ecdsaPublicKey, p.ecdsaPrivateKey
}

// IssueIdToken returns an id_token signed by the provider for its client,
// carrying nonce.  Callers must not hold p.mu.
func (p *TestProvider) IssueIdToken(nonce string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.issueIdToken(nonce)
}

func (p *TestProvider) issueIdToken(nonce string) string {
	stdClaims := jwt.Claims{
		Subject:   p.replySubject,
		Issuer:    p.Addr(),
		NotBefore: jwt.NewNumericDate(time.Now().Add(-5 * time.Second)),
		Expiry:    jwt.NewNumericDate(time.Now().Add(time.Minute)),
		Audience:  jwt.Audience{p.clientID},
	}
	private := map[string]interface{}{}
	for k, v := range p.customClaims {
		private[k] = v
	}
	if nonce != "" {
		private["nonce"] = nonce
	}
	return TestSignJWT(p.t, p.ecdsaPrivateKey, stdClaims, private)
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, out interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

func (p *TestProvider) writeAuthErrorResponse(w http.ResponseWriter, req *http.Request, errorCode, errorMessage string) {
	qv := req.URL.Query()
	v := url.Values{}
	v.Set("error", errorCode)
	if errorMessage != "" {
		v.Set("error_description", errorMessage)
	}
	if s := qv.Get("state"); s != "" {
		v.Set("state", s)
	}
	http.Redirect(w, req, qv.Get("redirect_uri")+"?"+v.Encode(), http.StatusFound)
}

func (p *TestProvider) writeTokenErrorResponse(w http.ResponseWriter, statusCode int, errorCode, errorMessage string) error {
	body := struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{
		Code: errorCode,
		Desc: errorMessage,
	}
	w.WriteHeader(statusCode)
	return p.writeJSON(w, &body)
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch req.URL.Path {
	case "/.well-known/openid-configuration":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		reply := struct {
			Issuer          string   `json:"issuer"`
			AuthEndpoint    string   `json:"authorization_endpoint,omitempty"`
			TokenEndpoint   string   `json:"token_endpoint"`
			JWKSURI         string   `json:"jwks_uri"`
			ScopesSupported []string `json:"scopes_supported,omitempty"`
			Algs            []string `json:"id_token_signing_alg_values_supported"`
		}{
			Issuer:          p.Addr(),
			AuthEndpoint:    p.Addr() + "/auth",
			TokenEndpoint:   p.Addr() + "/token",
			JWKSURI:         p.Addr() + "/certs",
			ScopesSupported: p.scopesSupported,
			Algs:            []string{string(ES256)},
		}
		if p.omitAuthEndpoint {
			reply.AuthEndpoint = ""
		}
		_ = p.writeJSON(w, &reply)

	case "/auth":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		qv := req.URL.Query()
		redirectURI := qv.Get("redirect_uri")
		if !strutils.StrListContains(p.allowedRedirectURIs, redirectURI) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		nonce := qv.Get("nonce")
		if p.expectedAuthNonce != "" && p.expectedAuthNonce != nonce {
			p.writeAuthErrorResponse(w, req, "access_denied", "unexpected nonce")
			return
		}
		switch qv.Get("response_type") {
		case "code":
			if p.expectedAuthCode == "" {
				p.writeAuthErrorResponse(w, req, "access_denied", "")
				return
			}
			v := url.Values{}
			v.Set("code", p.expectedAuthCode)
			if s := qv.Get("state"); s != "" {
				v.Set("state", s)
			}
			http.Redirect(w, req, redirectURI+"?"+v.Encode(), http.StatusFound)
		case "id_token":
			v := url.Values{}
			v.Set("id_token", p.issueIdToken(nonce))
			if s := qv.Get("state"); s != "" {
				v.Set("state", s)
			}
			http.Redirect(w, req, redirectURI+"#"+v.Encode(), http.StatusFound)
		default:
			p.writeAuthErrorResponse(w, req, "unsupported_response_type", "")
		}

	case "/certs":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = p.writeJSON(w, p.jwks)

	case "/token":
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		switch {
		case req.FormValue("grant_type") != "authorization_code":
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_request", "bad grant_type")
			return
		case !strutils.StrListContains(p.allowedRedirectURIs, req.FormValue("redirect_uri")):
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_request", "redirect_uri is not allowed")
			return
		case p.expectedAuthCode == "" || req.FormValue("code") != p.expectedAuthCode:
			_ = p.writeTokenErrorResponse(w, http.StatusUnauthorized, "invalid_grant", "unexpected auth code")
			return
		}
		idToken := p.issueIdToken(p.expectedAuthNonce)
		reply := struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
			IDToken     string `json:"id_token,omitempty"`
			ExpiresIn   int    `json:"expires_in"`
		}{
			AccessToken: idToken,
			TokenType:   "Bearer",
			IDToken:     idToken,
			ExpiresIn:   60,
		}
		if p.omitIDToken {
			reply.IDToken = ""
		}
		_ = p.writeJSON(w, &reply)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// testJWKS converts a pem-encoded public key into JWKS data suitable for a
// verification endpoint response
func testJWKS(t *testing.T, pubKey string) *jose.JSONWebKeySet {
	t.Helper()
	require := require.New(t)

	block, _ := pem.Decode([]byte(pubKey))
	require.NotNil(block)

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(err)

	return &jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{
			{
				Key:       pub,
				Algorithm: string(ES256),
				Use:       "sig",
			},
		},
	}
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package login

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/caplogin/oidc"
	"github.com/hashicorp/caplogin/storage"
	"github.com/stretchr/testify/require"
)

// testBackend is a Backend whose answers are set by the test.
type testBackend struct {
	mu sync.Mutex

	discovery    *oidc.DiscoveryResponse
	discoveryErr error
	// block, when set, holds GetDiscoveryDoc until it's closed
	block chan struct{}

	loggedIn  bool
	loginErr  error
	logouts   int
	logins    []Credentials
	stsLogins []STSRequest
}

var _ Backend = (*testBackend)(nil)

func (b *testBackend) GetDiscoveryDoc(ctx context.Context) (*oidc.DiscoveryResponse, error) {
	if b.block != nil {
		select {
		case <-b.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.discovery, b.discoveryErr
}

func (b *testBackend) Login(_ context.Context, c Credentials) (*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logins = append(b.logins, c)
	if b.loginErr != nil {
		return nil, b.loginErr
	}
	b.loggedIn = true
	return &Session{ID: "s_local", Subject: c.AccessKey}, nil
}

func (b *testBackend) LoginSTS(_ context.Context, r *STSRequest) (*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stsLogins = append(b.stsLogins, *r)
	if b.loginErr != nil {
		return nil, b.loginErr
	}
	b.loggedIn = true
	return &Session{ID: "s_sts"}, nil
}

func (b *testBackend) Logout(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logouts++
	b.loggedIn = false
	return nil
}

func (b *testBackend) LoggedIn(_ context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loggedIn, nil
}

func testDiscovery(clientID string) *oidc.DiscoveryResponse {
	return &oidc.DiscoveryResponse{
		DiscoveryDoc: &oidc.DiscoveryDocument{
			Issuer:                "https://idp.example.com/auth/realms/minio",
			AuthorizationEndpoint: "https://idp.example.com/auth/realms/minio/protocol/openid-connect/auth",
			ScopesSupported:       []string{"openid", "profile", "email"},
		},
		ClientID: clientID,
	}
}

type testRig struct {
	backend *testBackend
	nonces  *oidc.NonceStore
	gate    *oidc.LogoutGate
	c       *Controller
}

func newTestRig(t *testing.T, b *testBackend, opt ...oidc.Option) *testRig {
	t.Helper()
	m := storage.NewMemory()
	t.Cleanup(m.Stop)
	s, err := storage.Scoped(m, "browser-1")
	require.NoError(t, err)
	return newTestRigWithStore(t, b, s, opt...)
}

func newTestRigWithStore(t *testing.T, b *testBackend, s storage.Store, opt ...oidc.Option) *testRig {
	t.Helper()
	require := require.New(t)
	n, err := oidc.NewNonceStore(s)
	require.NoError(err)
	g, err := oidc.NewLogoutGate(s)
	require.NoError(err)
	c, err := NewController(b, n, g, opt...)
	require.NoError(err)
	return &testRig{backend: b, nonces: n, gate: g, c: c}
}

// testRecorder records what a Controller renders and navigates to, in order.
type testRecorder struct {
	mu     sync.Mutex
	events []string
	last   *Decision
}

func (r *testRecorder) Render(d *Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "render:"+d.State.String())
	r.last = d
}

func (r *testRecorder) Navigate(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "navigate")
}

func (r *testRecorder) get() ([]string, *Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...), r.last
}

// testSlowNonceStore holds writes of the nonce until release is closed.
type testSlowNonceStore struct {
	storage.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newTestSlowNonceStore(s storage.Store) *testSlowNonceStore {
	return &testSlowNonceStore{Store: s, entered: make(chan struct{}), release: make(chan struct{})}
}

func (s *testSlowNonceStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if key == oidc.NonceKey {
		s.once.Do(func() { close(s.entered) })
		<-s.release
	}
	return s.Store.Set(ctx, key, value, ttl)
}

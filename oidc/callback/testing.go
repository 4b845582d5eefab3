// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/hashicorp/caplogin/login"
	"github.com/hashicorp/caplogin/oidc"
	"github.com/hashicorp/caplogin/storage"
	"github.com/stretchr/testify/require"
)

// testSuccessFn is a test SuccessResponseFunc
func testSuccessFn(o *Outcome, w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"kind":    o.Kind.String(),
		"session": o.Session,
	})
}

// testFailFn is a test ErrorResponseFunc
func testFailFn(r *oidc.ProviderError, e error, w http.ResponseWriter, _ *http.Request) {
	if e != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(&oidc.ProviderError{
			Code:        "internal-callback-error",
			Description: oidc.AlertMessage(e),
		})
		return
	}
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(r)
}

// testExchanger records LoginSTS requests.
type testExchanger struct {
	mu   sync.Mutex
	reqs []login.STSRequest
	err  error
}

func (e *testExchanger) LoginSTS(_ context.Context, r *login.STSRequest) (*login.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reqs = append(e.reqs, *r)
	if e.err != nil {
		return nil, e.err
	}
	return &login.Session{ID: "s_1", Subject: "alice@example.com"}, nil
}

func (e *testExchanger) requests() []login.STSRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]login.STSRequest(nil), e.reqs...)
}

// testNonces returns a NonceStore with nonce pending (unless it's empty)
func testNonces(t *testing.T, nonce string) *oidc.NonceStore {
	t.Helper()
	require := require.New(t)
	m := storage.NewMemory()
	t.Cleanup(m.Stop)
	n, err := oidc.NewNonceStore(m)
	require.NoError(err)
	if nonce != "" {
		require.NoError(n.Persist(context.Background(), nonce))
	}
	return n
}

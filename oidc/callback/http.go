// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/caplogin/login"
	"github.com/hashicorp/caplogin/oidc"
)

// FragmentFormValue is the form value the landing page posts the callback
// URL's fragment in, since browsers never send fragments to servers.
const FragmentFormValue = "fragment"

// NewHTTPHandler creates a http.HandlerFunc for the callback.  Requests to
// the Handler's manual entry path are interactive.
func NewHTTPHandler(h *Handler, sFn SuccessResponseFunc, eFn ErrorResponseFunc) (http.HandlerFunc, error) {
	const op = "callback.NewHTTPHandler"
	switch {
	case h == nil:
		return nil, fmt.Errorf("%s: handler is nil: %w", op, oidc.ErrInvalidParameter)
	case sFn == nil:
		return nil, fmt.Errorf("%s: success response func is nil: %w", op, oidc.ErrInvalidParameter)
	case eFn == nil:
		return nil, fmt.Errorf("%s: error response func is nil: %w", op, oidc.ErrInvalidParameter)
	}
	return func(w http.ResponseWriter, req *http.Request) {
		u := login.RequestURL(req)
		if frag := req.FormValue(FragmentFormValue); frag != "" {
			u.Fragment = strings.TrimPrefix(frag, "#")
		}
		out, err := h.Handle(req.Context(), u, req.URL.Path == h.ManualEntryPath())
		if err != nil {
			var pe *oidc.ProviderError
			if errors.As(err, &pe) {
				eFn(pe, nil, w, req)
				return
			}
			eFn(nil, err, w, req)
			return
		}
		sFn(out, w, req)
	}, nil
}

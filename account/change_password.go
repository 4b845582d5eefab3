// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package account

import (
	"strings"

	"github.com/hashicorp/caplogin/oidc"
)

// TargetKind is where "change password" takes the user.
type TargetKind int

const (
	// TargetModal is the in-app change password dialog.
	TargetModal TargetKind = iota

	// TargetProvider is the provider's account-management page.
	TargetProvider
)

func (k TargetKind) String() string {
	if k == TargetProvider {
		return "provider"
	}
	return "modal"
}

// Target of a "change password" action.
type Target struct {
	Kind TargetKind `json:"-"`

	// URL of the provider page, for TargetProvider.
	URL string `json:"url,omitempty"`

	// Link is the full derivation, for TargetProvider.
	Link *Link `json:"-"`
}

// ChangePassword decides where "change password" goes.  Users of a provider
// whose discovery document carries an issuer go to the provider's account
// page.  Everyone else, and anyone whose link can't be derived, gets the
// in-app dialog.  It never fails.
func (r *Resolver) ChangePassword(doc *oidc.DiscoveryDocument) Target {
	if doc == nil || strings.TrimSpace(doc.Issuer) == "" {
		return Target{Kind: TargetModal}
	}
	l, err := r.Resolve(doc.Issuer)
	if err != nil {
		r.logger.Error("error deriving provider account page", "issuer", doc.Issuer, "error", err)
		return Target{Kind: TargetModal}
	}
	return Target{Kind: TargetProvider, URL: l.Primary, Link: l}
}

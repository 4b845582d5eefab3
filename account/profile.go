// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package account

import (
	"fmt"
	"strings"

	"github.com/hashicorp/caplogin/oidc"
)

// RealmPlaceholder is replaced by the realm in a Profile's templates.
const RealmPlaceholder = "{realm}"

// DefaultRealm is used when the issuer has no realm segment.
const DefaultRealm = "master"

// DefaultTemplates are the account-management paths of the Keycloak account
// console, most specific first: the signing-in page (where the password is
// changed), the legacy password page and the console root.
var DefaultTemplates = []string{
	"/realms/" + RealmPlaceholder + "/account/#/security/signingin",
	"/realms/" + RealmPlaceholder + "/account/#/password",
	"/realms/" + RealmPlaceholder + "/account/",
}

// Profile describes how a provider lays out its account-management pages.
type Profile struct {
	// Name of the profile
	Name string

	// AuthRoot is appended to the base URL when it doesn't already end with
	// it (e.g. "/auth" for Keycloak before 17).
	AuthRoot string

	// DefaultRealm is used when the issuer has no /realms/ segment.
	DefaultRealm string

	// Templates are tried in order.  The first is the primary link.
	Templates []string
}

var (
	// KeycloakLegacy is Keycloak served under /auth (before version 17).
	KeycloakLegacy = Profile{
		Name:         "keycloak-legacy",
		AuthRoot:     "/auth",
		DefaultRealm: DefaultRealm,
		Templates:    DefaultTemplates,
	}

	// Keycloak is Keycloak 17 and later, served from the root.
	Keycloak = Profile{
		Name:         "keycloak",
		DefaultRealm: DefaultRealm,
		Templates:    DefaultTemplates,
	}
)

// ProfileByName returns a built-in profile.
func ProfileByName(name string) (Profile, error) {
	const op = "account.ProfileByName"
	switch strings.ToLower(strings.TrimSpace(name)) {
	case KeycloakLegacy.Name:
		return KeycloakLegacy, nil
	case Keycloak.Name, "":
		return Keycloak, nil
	default:
		return Profile{}, fmt.Errorf("%s: unknown profile %q: %w", op, name, oidc.ErrInvalidParameter)
	}
}

func (p Profile) validate() error {
	const op = "Profile.validate"
	if len(p.Templates) == 0 {
		return fmt.Errorf("%s: profile %q has no templates: %w", op, p.Name, oidc.ErrInvalidParameter)
	}
	for _, t := range p.Templates {
		if !strings.HasPrefix(t, "/") {
			return fmt.Errorf("%s: template %q is not an absolute path: %w", op, t, oidc.ErrInvalidParameter)
		}
	}
	if p.AuthRoot != "" && (!strings.HasPrefix(p.AuthRoot, "/") || strings.HasSuffix(p.AuthRoot, "/")) {
		return fmt.Errorf("%s: auth root %q must start and not end with /: %w", op, p.AuthRoot, oidc.ErrInvalidParameter)
	}
	return nil
}

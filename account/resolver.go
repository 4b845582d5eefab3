// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package account

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/hashicorp/caplogin/oidc"
	"github.com/hashicorp/go-hclog"
)

// AutoClickParam asks the provider's account theme to press "Update" on the
// signing-in page once it has loaded.
const AutoClickParam = "auto_click"

var realmPattern = regexp.MustCompile(`/realms/([^/?#]+)`)

const realmsSegment = "/realms/"

// Link is the set of account-management URLs derived from an issuer.
type Link struct {
	Realm   string
	BaseURL string

	// Primary is the URL to open.
	Primary string

	// Alternates are the other templates' URLs.  They're for diagnostics
	// and are never opened automatically.
	Alternates []string
}

// Resolver derives account-management links from an issuer URL.
type Resolver struct {
	profile   Profile
	autoClick bool
	logger    hclog.Logger
}

// NewResolver creates a Resolver for the profile.
// Supported options: WithLogger, WithAutoClick
func NewResolver(p Profile, opt ...oidc.Option) (*Resolver, error) {
	const op = "account.NewResolver"
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.DefaultRealm == "" {
		p.DefaultRealm = DefaultRealm
	}
	p.Templates = append([]string(nil), p.Templates...)
	opts := getResolverOpts(opt...)
	return &Resolver{
		profile:   p,
		autoClick: opts.withAutoClick,
		logger:    opts.withLogger.Named("account"),
	}, nil
}

// Resolve the issuer into a Link.  The realm is the path segment following
// /realms/ (the profile's default realm when there's none) and the base URL
// is the issuer truncated before /realms/.
func (r *Resolver) Resolve(issuer string) (*Link, error) {
	const op = "Resolver.Resolve"
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil, fmt.Errorf("%s: issuer is empty: %w", op, oidc.ErrLinkDerivationFailed)
	}
	u, err := url.Parse(issuer)
	switch {
	case err != nil:
		return nil, fmt.Errorf("%s: unable to parse issuer: %w: %s", op, oidc.ErrLinkDerivationFailed, err)
	case u.Scheme != "http" && u.Scheme != "https", u.Host == "":
		return nil, fmt.Errorf("%s: issuer %q is not a http(s) url: %w", op, issuer, oidc.ErrLinkDerivationFailed)
	}

	// the realm is matched in the escaped path so it's unescaped exactly once
	realm := r.profile.DefaultRealm
	if m := realmPattern.FindStringSubmatch(u.EscapedPath()); len(m) == 2 {
		realm, err = url.PathUnescape(m[1])
		if err != nil {
			return nil, fmt.Errorf("%s: invalid realm %q: %w", op, m[1], oidc.ErrLinkDerivationFailed)
		}
	}

	basePath := u.Path
	if i := strings.Index(basePath, realmsSegment); i >= 0 {
		basePath = basePath[:i]
	}
	basePath = strings.TrimRight(basePath, "/")
	if r.profile.AuthRoot != "" && !strings.HasSuffix(basePath, r.profile.AuthRoot) {
		basePath += r.profile.AuthRoot
	}
	base := url.URL{Scheme: u.Scheme, Host: u.Host, Path: basePath}

	l := &Link{
		Realm:   realm,
		BaseURL: base.String(),
	}
	for i, tmpl := range r.profile.Templates {
		link, err := r.expand(base, tmpl, realm, i == 0 && r.autoClick)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if i == 0 {
			l.Primary = link
			continue
		}
		l.Alternates = append(l.Alternates, link)
	}
	if len(l.Alternates) > 0 {
		r.logger.Debug("alternate account links", "primary", l.Primary, "alternates", l.Alternates)
	}
	return l, nil
}

// expand the template against the base URL.  Fragments in templates address
// the account console's client-side routes and are kept verbatim.
func (r *Resolver) expand(base url.URL, tmpl, realm string, autoClick bool) (string, error) {
	const op = "Resolver.expand"
	p, frag, hasFrag := strings.Cut(strings.ReplaceAll(tmpl, RealmPlaceholder, url.PathEscape(realm)), "#")
	rel, err := url.Parse(p)
	if err != nil {
		return "", fmt.Errorf("%s: invalid template %q: %w: %s", op, tmpl, oidc.ErrLinkDerivationFailed, err)
	}
	u := base
	u.Path = base.Path + rel.Path
	u.RawPath = ""
	q := rel.Query()
	if autoClick {
		q.Set(AutoClickParam, "true")
	}
	u.RawQuery = q.Encode()
	s := u.String()
	if hasFrag {
		s += "#" + frag
	}
	return s, nil
}

type resolverOptions struct {
	withLogger    hclog.Logger
	withAutoClick bool
}

func resolverDefaults() resolverOptions {
	return resolverOptions{withLogger: hclog.NewNullLogger()}
}

func getResolverOpts(opt ...oidc.Option) resolverOptions {
	opts := resolverDefaults()
	oidc.ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger for the Resolver.
func WithLogger(l hclog.Logger) oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*resolverOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithAutoClick adds auto_click=true to the primary link.
func WithAutoClick() oidc.Option {
	return func(o interface{}) {
		if o, ok := o.(*resolverOptions); ok {
			o.withAutoClick = true
		}
	}
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/caplogin/account"
	"github.com/hashicorp/caplogin/oidc"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/text/language"
)

// envPrefix prefixes every environment variable read by loadConfig.
const envPrefix = "CAPLOGIN_"

var errInvalidConfig = errors.New("invalid configuration")

// config of the example relying party.
type config struct {
	Addr string `env:"ADDR" envDefault:"localhost:9000"`

	Issuer       string   `env:"ISSUER"`
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	ProviderCA   string   `env:"PROVIDER_CA_FILE,file"`
	SigningAlgs  []string `env:"SIGNING_ALGS" envDefault:"RS256" envSeparator:","`
	Scopes       []string `env:"SCOPES" envSeparator:","`

	ResponseType string   `env:"RESPONSE_TYPE" envDefault:"code"`
	AutoRedirect bool     `env:"AUTO_REDIRECT" envDefault:"true"`
	RedirectURI  string   `env:"REDIRECT_URI"`
	UILocales    []string `env:"UI_LOCALES" envSeparator:","`

	// AccessKey and SecretKey enable local login.
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`

	AccountProfile   string `env:"ACCOUNT_PROFILE" envDefault:"keycloak"`
	AccountAutoClick bool   `env:"ACCOUNT_AUTO_CLICK"`

	DiscoveryCacheTTL time.Duration `env:"DISCOVERY_CACHE_TTL" envDefault:"0s"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	// RedisAddr switches storage from memory to redis.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"caplogin"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// loadConfig reads the config from environ, or from the process environment
// when environ is nil.
func loadConfig(environ map[string]string) (*config, error) {
	const op = "loadConfig"
	var c config
	if err := env.ParseWithOptions(&c, env.Options{Prefix: envPrefix, Environment: environ}); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, errInvalidConfig, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

// validate reports every problem found.
func (c *config) validate() error {
	const op = "config.validate"
	var result *multierror.Error
	if c.Issuer == "" {
		result = multierror.Append(result, fmt.Errorf("%s: %sISSUER is empty: %w", op, envPrefix, errInvalidConfig))
	}
	switch oidc.ResponseType(c.ResponseType) {
	case oidc.ResponseTypeCode, oidc.ResponseTypeIDToken:
	default:
		result = multierror.Append(result, fmt.Errorf("%s: unsupported response type %q: %w", op, c.ResponseType, errInvalidConfig))
	}
	if c.RedirectURI != "" {
		if u, err := url.Parse(c.RedirectURI); err != nil || !u.IsAbs() {
			result = multierror.Append(result, fmt.Errorf("%s: redirect uri %q is not absolute: %w", op, c.RedirectURI, errInvalidConfig))
		}
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		result = multierror.Append(result, fmt.Errorf("%s: access key and secret key must be set together: %w", op, errInvalidConfig))
	}
	if _, err := account.ProfileByName(c.AccountProfile); err != nil {
		result = multierror.Append(result, fmt.Errorf("%s: %w: %w", op, errInvalidConfig, err))
	}
	if _, err := c.locales(); err != nil {
		result = multierror.Append(result, fmt.Errorf("%s: %w: %w", op, errInvalidConfig, err))
	}
	if c.SessionTTL <= 0 {
		result = multierror.Append(result, fmt.Errorf("%s: session ttl must be positive: %w", op, errInvalidConfig))
	}
	if c.DiscoveryCacheTTL < 0 {
		result = multierror.Append(result, fmt.Errorf("%s: discovery cache ttl is negative: %w", op, errInvalidConfig))
	}
	return result.ErrorOrNil()
}

func (c *config) locales() ([]language.Tag, error) {
	tags := make([]language.Tag, 0, len(c.UILocales))
	for _, l := range c.UILocales {
		t, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("ui locale %q: %w", l, err)
		}
		tags = append(tags, t)
	}
	return tags, nil
}

func (c *config) algs() []oidc.Alg {
	algs := make([]oidc.Alg, 0, len(c.SigningAlgs))
	for _, a := range c.SigningAlgs {
		algs = append(algs, oidc.Alg(a))
	}
	return algs
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package config loads service configuration from the environment.
package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/samber/oops"
)

// Config holds everything the service needs to run. Values come from
// GATEWARDEN_* environment variables.
type Config struct {
	// ListenAddr is the HTTP API bind address.
	ListenAddr string `env:"GATEWARDEN_LISTEN_ADDR" envDefault:":8080"`

	// MetricsAddr is the observability server bind address.
	MetricsAddr string `env:"GATEWARDEN_METRICS_ADDR" envDefault:":9090"`

	// DatabaseURL is the PostgreSQL connection string. Empty selects the
	// in-memory stores, which lose all state on restart.
	DatabaseURL string `env:"GATEWARDEN_DATABASE_URL"`

	// TokenSecret signs access tokens. Required.
	TokenSecret string `env:"GATEWARDEN_TOKEN_SECRET"`

	// AccessTokenTTL is the access token lifetime.
	AccessTokenTTL time.Duration `env:"GATEWARDEN_ACCESS_TOKEN_TTL" envDefault:"15m"`

	// RefreshTokenTTL is the refresh session lifetime.
	RefreshTokenTTL time.Duration `env:"GATEWARDEN_REFRESH_TOKEN_TTL" envDefault:"168h"`

	// GoogleClientID enables federated login when set. Tokens minted for
	// any other OAuth client are rejected.
	GoogleClientID string `env:"GATEWARDEN_GOOGLE_CLIENT_ID"`

	// LogFormat is "json" or "text".
	LogFormat string `env:"GATEWARDEN_LOG_FORMAT" envDefault:"json"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TokenSecret) == "" {
		return oops.Code("CONFIG_MISSING_SECRET").
			Errorf("GATEWARDEN_TOKEN_SECRET is required")
	}
	if c.AccessTokenTTL <= 0 {
		return oops.Code("CONFIG_INVALID_TTL").
			With("access_token_ttl", c.AccessTokenTTL.String()).
			Errorf("access token TTL must be positive")
	}
	if c.RefreshTokenTTL <= 0 {
		return oops.Code("CONFIG_INVALID_TTL").
			With("refresh_token_ttl", c.RefreshTokenTTL.String()).
			Errorf("refresh token TTL must be positive")
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		return oops.Code("CONFIG_INVALID_TTL").
			Errorf("refresh token TTL must exceed the access token TTL")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID_LOG_FORMAT").
			With("log_format", c.LogFormat).
			Errorf("log format must be json or text")
	}
	return nil
}

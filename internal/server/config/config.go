// Package config handles configuration for the server component,
// including defaults, environment (.env), JSON overlay, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the gophauth server.
//
// Fields:
//   - EndpointAddrGRPC / EndpointAddrHTTP: bind addresses; an empty HTTP address disables HTTP.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory user store.
//   - SecretKey / SigningAlgorithm: shared HMAC secret and JWT algorithm (HS256, HS384, HS512).
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - PasswordHashAlgorithm / PasswordHashCost: "bcrypt" (cost = rounds) or "argon2id".
//   - RedisAddr / RedisPassword / RedisDB / UserCacheTTL: optional user cache; empty addr disables it.
//   - LogLevel: debug, info, warn or error.
//   - BootstrapAdmin*: when all three are set, an admin account is created at startup if missing.
type Config struct {
	EndpointAddrGRPC             string
	EndpointAddrHTTP             string
	DatabaseDSN                  string
	SecretKey                    string
	SigningAlgorithm             string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	PasswordHashAlgorithm        string
	PasswordHashCost             int
	RedisAddr                    string
	RedisPassword                string
	RedisDB                      int
	UserCacheTTL                 time.Duration
	LogLevel                     string
	BootstrapAdminEmail          string
	BootstrapAdminUsername       string
	BootstrapAdminPassword       string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret is insecure for production and must be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = "change-me-in-production"
	c.SigningAlgorithm = "HS256"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.PasswordHashAlgorithm = "bcrypt"
	c.PasswordHashCost = 12
	c.RedisAddr = ""
	c.RedisDB = 0
	c.UserCacheTTL = 30 * time.Second
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment (optionally seeded from a .env file), an optional JSON
// file and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, os.Args[1:])
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}

var validAlgorithms = map[string]struct{}{"HS256": {}, "HS384": {}, "HS512": {}}

// Validate reports settings that would make the server unsafe or unusable.
func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key must not be empty"))
	}
	if _, ok := validAlgorithms[c.SigningAlgorithm]; !ok {
		errs = append(errs, fmt.Errorf("unsupported signing algorithm %q", c.SigningAlgorithm))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("access token validity must be positive"))
	}
	if c.RefreshTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("refresh token validity must be positive"))
	}
	switch c.PasswordHashAlgorithm {
	case "bcrypt":
		if c.PasswordHashCost < 4 || c.PasswordHashCost > 31 {
			errs = append(errs, fmt.Errorf("bcrypt cost %d out of range 4..31", c.PasswordHashCost))
		}
	case "argon2id":
	default:
		errs = append(errs, fmt.Errorf("unsupported password hash algorithm %q", c.PasswordHashAlgorithm))
	}
	if c.RedisAddr != "" && c.UserCacheTTL <= 0 {
		errs = append(errs, errors.New("user cache ttl must be positive when redis is enabled"))
	}
	if c.EndpointAddrGRPC == "" && c.EndpointAddrHTTP == "" {
		errs = append(errs, errors.New("at least one of the gRPC or HTTP endpoints must be set"))
	}

	return errors.Join(errs...)
}

// BootstrapAdminEnabled reports whether a startup admin account is configured.
func (c *Config) BootstrapAdminEnabled() bool {
	return c.BootstrapAdminEmail != "" && c.BootstrapAdminUsername != "" && c.BootstrapAdminPassword != ""
}

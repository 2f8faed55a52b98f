package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk JSON shape of the server configuration. Duration
// fields use timex.Duration, so both "15m" and integer nanoseconds decode.
// Pointer fields distinguish "absent" from an explicit zero value.
type JsonConfig struct {
	EndpointAddrGRPC             *string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	SecretKey                    *string         `json:"secret_key"`
	SigningAlgorithm             *string         `json:"signing_algorithm"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	PasswordHashAlgorithm        *string         `json:"password_hash_algorithm"`
	PasswordHashCost             *int            `json:"password_hash_cost"`
	RedisAddr                    *string         `json:"redis_addr"`
	RedisPassword                *string         `json:"redis_password"`
	RedisDB                      *int            `json:"redis_db"`
	UserCacheTTL                 *timex.Duration `json:"user_cache_ttl"`
	LogLevel                     *string         `json:"log_level"`
	BootstrapAdminEmail          *string         `json:"bootstrap_admin_email"`
	BootstrapAdminUsername       *string         `json:"bootstrap_admin_username"`
	BootstrapAdminPassword       *string         `json:"bootstrap_admin_password"`
}

// parseJson overlays Config with values from the JSON file named by -c or
// -config. Without the flag nothing is loaded. Keys missing from the file
// leave the current value untouched. Unreadable files and invalid JSON panic.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.ConfigFileFlag(args)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setIf(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setIf(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.SecretKey, c.SecretKey)
	setIf(&config.SigningAlgorithm, c.SigningAlgorithm)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	setIf(&config.PasswordHashAlgorithm, c.PasswordHashAlgorithm)
	setIf(&config.PasswordHashCost, c.PasswordHashCost)
	setIf(&config.RedisAddr, c.RedisAddr)
	setIf(&config.RedisPassword, c.RedisPassword)
	setIf(&config.RedisDB, c.RedisDB)
	if c.UserCacheTTL != nil {
		config.UserCacheTTL = c.UserCacheTTL.Duration
	}
	setIf(&config.LogLevel, c.LogLevel)
	setIf(&config.BootstrapAdminEmail, c.BootstrapAdminEmail)
	setIf(&config.BootstrapAdminUsername, c.BootstrapAdminUsername)
	setIf(&config.BootstrapAdminPassword, c.BootstrapAdminPassword)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

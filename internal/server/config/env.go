package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv overlays Config with environment variables. A dotenv file is
// loaded first (path from -env, otherwise ".env" if present); variables that
// are already set in the process environment take precedence over the file.
//
// Recognized variables:
//
//	GRPC_ADDRESS, HTTP_ADDRESS, DATABASE_DSN, JWT_SECRET_KEY, JWT_ALGORITHM,
//	ACCESS_TOKEN_TTL, REFRESH_TOKEN_TTL, PASSWORD_HASH_ALGORITHM, BCRYPT_ROUNDS,
//	REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, USER_CACHE_TTL, LOG_LEVEL,
//	BOOTSTRAP_ADMIN_EMAIL, BOOTSTRAP_ADMIN_USERNAME, BOOTSTRAP_ADMIN_PASSWORD
//
// Malformed numbers and durations are ignored and the previous value is kept.
func parseEnv(config *Config, args []string) {
	if path := flagx.EnvFileFlag(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	envString(&config.EndpointAddrGRPC, "GRPC_ADDRESS")
	envString(&config.EndpointAddrHTTP, "HTTP_ADDRESS")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.SecretKey, "JWT_SECRET_KEY")
	envString(&config.SigningAlgorithm, "JWT_ALGORITHM")
	envDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_TTL")
	envDuration(&config.RefreshTokenValidityDuration, "REFRESH_TOKEN_TTL")
	envString(&config.PasswordHashAlgorithm, "PASSWORD_HASH_ALGORITHM")
	envInt(&config.PasswordHashCost, "BCRYPT_ROUNDS")
	envString(&config.RedisAddr, "REDIS_ADDR")
	envString(&config.RedisPassword, "REDIS_PASSWORD")
	envInt(&config.RedisDB, "REDIS_DB")
	envDuration(&config.UserCacheTTL, "USER_CACHE_TTL")
	envString(&config.LogLevel, "LOG_LEVEL")
	envString(&config.BootstrapAdminEmail, "BOOTSTRAP_ADMIN_EMAIL")
	envString(&config.BootstrapAdminUsername, "BOOTSTRAP_ADMIN_USERNAME")
	envString(&config.BootstrapAdminPassword, "BOOTSTRAP_ADMIN_PASSWORD")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

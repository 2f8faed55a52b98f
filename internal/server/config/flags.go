package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string         gRPC bind address (e.g., ":50051")
//	-w string         HTTP bind address (e.g., ":8080"); empty disables HTTP
//	-d string         PostgreSQL DSN; empty selects the in-memory store
//	-s string         JWT HMAC secret key
//	-m string         JWT signing algorithm (HS256, HS384, HS512)
//	-t int            access token validity, minutes
//	-r int            refresh token validity, minutes
//	-x string         password hash algorithm (bcrypt, argon2id)
//	-k int            bcrypt cost
//	-redis string     Redis address for the user cache
//	-cache-ttl dur    user cache entry lifetime
//	-log-level string log level
//
// Only recognized flags are kept via flagx.FilterArgs so that -c/-env and
// other components' flags do not collide. A malformed value panics.
func parseFlags(config *Config, osArgs []string) {
	args := flagx.FilterArgs(osArgs, []string{
		"-a", "-w", "-d", "-s", "-m", "-t", "-r", "-x", "-k", "-redis", "-cache-ttl", "-log-level",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port to run server")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.SigningAlgorithm, "m", config.SigningAlgorithm, "JWT signing algorithm")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.StringVar(&config.PasswordHashAlgorithm, "x", config.PasswordHashAlgorithm, "password hash algorithm")
	fs.IntVar(&config.PasswordHashCost, "k", config.PasswordHashCost, "bcrypt cost")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address for user cache")
	fs.DurationVar(&config.UserCacheTTL, "cache-ttl", config.UserCacheTTL, "user cache ttl")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
}

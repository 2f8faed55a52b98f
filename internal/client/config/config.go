// Package config loads runtime configuration for the identctl operator CLI.
//
// Sources, in increasing precedence: built-in defaults, an optional JSON
// file given with -c or -config, and the -a / -t command-line flags.
package config

import (
	"os"
	"time"
)

// Config holds runtime settings for identctl.
//
// Fields:
//   - ServerEndpointAddr: host:port of the gophauth gRPC endpoint.
//   - RequestTimeout: deadline applied to every RPC.
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}

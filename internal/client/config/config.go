// Package config handles configuration for the SessionKeeper client,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the client CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the backend auth API.
//   - DatabasePath: sqlite DSN/path for the local session database.
//   - RequestTimeout: per-request timeout for gateway calls; an exceeded
//     timeout surfaces as a categorized network error, never a crash.
type Config struct {
	ServerBaseURL  string
	DatabasePath   string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.DatabasePath = "session.db"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

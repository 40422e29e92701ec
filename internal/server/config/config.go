// Package config loads the backend process settings: defaults, then the
// environment (including a .env file), then an optional JSON file, then
// command-line flags. Later sources win.
package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the backend process.
//
// An empty DatabaseDSN keeps the user collection in memory. SeedUsers is the
// number of generated directory users created at startup in addition to the
// demo accounts; a negative value disables seeding.
type Config struct {
	EndpointAddrGRPC string
	DatabaseDSN      string
	Latency          time.Duration
	Mailer           string
	LogLevel         string
	LogFormat        string
	SeedUsers        int
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.Latency = 500 * time.Millisecond
	c.Mailer = "log"
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.SeedUsers = 20
}

// LoadConfig builds a Config from every source, reading os.Args.
func LoadConfig() *Config {
	return Load(os.Args[1:])
}

// Load is LoadConfig with explicit command-line arguments.
func Load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}

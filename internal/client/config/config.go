// Package config loads the dashboard client settings.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables, after loading a .env file if one exists.
//  3. Optional JSON file selected with -c or -config.
//  4. Command-line flags.
//
// # JSON schema
//
// Durations accept strings like "5s" or integer nanoseconds:
//
//	{
//	  "backend_addr": "127.0.0.1:50051",
//	  "delay": "800ms",
//	  "slot_store": "sqlite",
//	  "state_dsn": "insightpulse.db",
//	  "realtime_interval": "5s",
//	  "directory_source": "backend"
//	}
package config

import (
	"os"
	"time"
)

const (
	SlotStoreSQLite = "sqlite"
	SlotStoreRedis  = "redis"

	DirectoryGenerated = "generated"
	DirectoryBackend   = "backend"
)

// Config holds runtime settings for the dashboard REPL.
//
// An empty BackendAddr runs the backend in-process with BackendLatency;
// otherwise the remote backend is pinged every PingInterval.
// SlotKey, when set, encrypts the stored session. The OIDC pair, when set,
// replaces the shared-secret assertion verifier. An empty S3Bucket disables
// analytics export.
type Config struct {
	BackendAddr    string
	BackendLatency time.Duration
	PingInterval   time.Duration
	Delay          time.Duration

	StateDSN  string
	SlotStore string
	RedisURL  string
	SlotKey   string

	JWTSecret string
	AccessTTL time.Duration

	RealtimeInterval time.Duration
	DirectorySize    int
	DirectorySource  string

	AssertionSecret string
	AssertionIssuer string
	OIDCIssuer      string
	OIDCClientID    string

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string

	LogLevel  string
	LogFormat string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.BackendAddr = ""
	c.BackendLatency = 500 * time.Millisecond
	c.PingInterval = 3 * time.Second
	c.Delay = 800 * time.Millisecond

	c.StateDSN = "insightpulse.db"
	c.SlotStore = SlotStoreSQLite
	c.RedisURL = "redis://localhost:6379/0"
	c.SlotKey = ""

	c.JWTSecret = ""
	c.AccessTTL = 15 * time.Minute

	c.RealtimeInterval = 5 * time.Second
	c.DirectorySize = 20
	c.DirectorySource = DirectoryGenerated

	c.AssertionSecret = "insightpulse-dev-assertion"
	c.AssertionIssuer = "insightpulse-dev"
	c.OIDCIssuer = ""
	c.OIDCClientID = ""

	c.S3Endpoint = "http://localhost:9000"
	c.S3Region = "us-east-1"
	c.S3AccessKey = ""
	c.S3SecretKey = ""
	c.S3Bucket = ""

	c.LogLevel = "warn"
	c.LogFormat = "text"
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

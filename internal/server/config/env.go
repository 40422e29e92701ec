package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	envGRPCAddr    = "INSIGHTPULSE_GRPC_ADDR"
	envDatabaseDSN = "INSIGHTPULSE_DATABASE_DSN"
	envLatency     = "INSIGHTPULSE_LATENCY"
	envMailer      = "INSIGHTPULSE_MAILER"
	envLogLevel    = "INSIGHTPULSE_LOG_LEVEL"
	envLogFormat   = "INSIGHTPULSE_LOG_FORMAT"
	envSeedUsers   = "INSIGHTPULSE_SEED_USERS"
)

// parseEnv overlays values from the process environment. A .env file in the
// working directory is loaded first if present; it never overrides variables
// that are already set. Unparsable numbers and durations are ignored.
func parseEnv(c *Config) {
	_ = godotenv.Load()

	c.EndpointAddrGRPC = getEnv(envGRPCAddr, c.EndpointAddrGRPC)
	c.DatabaseDSN = getEnv(envDatabaseDSN, c.DatabaseDSN)
	c.Mailer = getEnv(envMailer, c.Mailer)
	c.LogLevel = getEnv(envLogLevel, c.LogLevel)
	c.LogFormat = getEnv(envLogFormat, c.LogFormat)

	if v := os.Getenv(envLatency); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Latency = d
		}
	}
	if v := os.Getenv(envSeedUsers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SeedUsers = n
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

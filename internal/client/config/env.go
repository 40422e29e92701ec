package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	envBackendAddr      = "INSIGHTPULSE_BACKEND_ADDR"
	envBackendLatency   = "INSIGHTPULSE_BACKEND_LATENCY"
	envPingInterval     = "INSIGHTPULSE_PING_INTERVAL"
	envDelay            = "INSIGHTPULSE_DELAY"
	envStateDSN         = "INSIGHTPULSE_STATE_DSN"
	envSlotStore        = "INSIGHTPULSE_SLOT_STORE"
	envRedisURL         = "INSIGHTPULSE_REDIS_URL"
	envSlotKey          = "INSIGHTPULSE_SLOT_KEY"
	envJWTSecret        = "INSIGHTPULSE_JWT_SECRET"
	envAccessTTL        = "INSIGHTPULSE_ACCESS_TTL"
	envRealtimeInterval = "INSIGHTPULSE_REALTIME_INTERVAL"
	envDirectorySize    = "INSIGHTPULSE_DIRECTORY_SIZE"
	envDirectorySource  = "INSIGHTPULSE_DIRECTORY_SOURCE"
	envAssertionSecret  = "INSIGHTPULSE_ASSERTION_SECRET"
	envAssertionIssuer  = "INSIGHTPULSE_ASSERTION_ISSUER"
	envOIDCIssuer       = "INSIGHTPULSE_OIDC_ISSUER"
	envOIDCClientID     = "INSIGHTPULSE_OIDC_CLIENT_ID"
	envS3Endpoint       = "INSIGHTPULSE_S3_ENDPOINT"
	envS3Region         = "INSIGHTPULSE_S3_REGION"
	envS3AccessKey      = "INSIGHTPULSE_S3_ACCESS_KEY"
	envS3SecretKey      = "INSIGHTPULSE_S3_SECRET_KEY"
	envS3Bucket         = "INSIGHTPULSE_S3_BUCKET"
	envLogLevel         = "INSIGHTPULSE_LOG_LEVEL"
	envLogFormat        = "INSIGHTPULSE_LOG_FORMAT"
)

// parseEnv overlays values from the process environment. A .env file in the
// working directory is loaded first if present; it never overrides variables
// that are already set. Unparsable numbers and durations are ignored.
func parseEnv(c *Config) {
	_ = godotenv.Load()

	c.BackendAddr = getEnv(envBackendAddr, c.BackendAddr)
	c.StateDSN = getEnv(envStateDSN, c.StateDSN)
	c.SlotStore = getEnv(envSlotStore, c.SlotStore)
	c.RedisURL = getEnv(envRedisURL, c.RedisURL)
	c.SlotKey = getEnv(envSlotKey, c.SlotKey)
	c.JWTSecret = getEnv(envJWTSecret, c.JWTSecret)
	c.DirectorySource = getEnv(envDirectorySource, c.DirectorySource)
	c.AssertionSecret = getEnv(envAssertionSecret, c.AssertionSecret)
	c.AssertionIssuer = getEnv(envAssertionIssuer, c.AssertionIssuer)
	c.OIDCIssuer = getEnv(envOIDCIssuer, c.OIDCIssuer)
	c.OIDCClientID = getEnv(envOIDCClientID, c.OIDCClientID)
	c.S3Endpoint = getEnv(envS3Endpoint, c.S3Endpoint)
	c.S3Region = getEnv(envS3Region, c.S3Region)
	c.S3AccessKey = getEnv(envS3AccessKey, c.S3AccessKey)
	c.S3SecretKey = getEnv(envS3SecretKey, c.S3SecretKey)
	c.S3Bucket = getEnv(envS3Bucket, c.S3Bucket)
	c.LogLevel = getEnv(envLogLevel, c.LogLevel)
	c.LogFormat = getEnv(envLogFormat, c.LogFormat)

	c.BackendLatency = getEnvDuration(envBackendLatency, c.BackendLatency)
	c.PingInterval = getEnvDuration(envPingInterval, c.PingInterval)
	c.Delay = getEnvDuration(envDelay, c.Delay)
	c.AccessTTL = getEnvDuration(envAccessTTL, c.AccessTTL)
	c.RealtimeInterval = getEnvDuration(envRealtimeInterval, c.RealtimeInterval)

	if v := os.Getenv(envDirectorySize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DirectorySize = n
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

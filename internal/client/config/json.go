package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/insightpulse/internal/flagx"
	"github.com/dmitrijs2005/insightpulse/internal/timex"
)

// JsonConfig is the file form of Config. Absent keys leave the current value
// alone.
type JsonConfig struct {
	BackendAddr      *string         `json:"backend_addr"`
	BackendLatency   *timex.Duration `json:"backend_latency"`
	PingInterval     *timex.Duration `json:"ping_interval"`
	Delay            *timex.Duration `json:"delay"`
	StateDSN         *string         `json:"state_dsn"`
	SlotStore        *string         `json:"slot_store"`
	RedisURL         *string         `json:"redis_url"`
	SlotKey          *string         `json:"slot_key"`
	JWTSecret        *string         `json:"jwt_secret"`
	AccessTTL        *timex.Duration `json:"access_ttl"`
	RealtimeInterval *timex.Duration `json:"realtime_interval"`
	DirectorySize    *int            `json:"directory_size"`
	DirectorySource  *string         `json:"directory_source"`
	AssertionSecret  *string         `json:"assertion_secret"`
	AssertionIssuer  *string         `json:"assertion_issuer"`
	OIDCIssuer       *string         `json:"oidc_issuer"`
	OIDCClientID     *string         `json:"oidc_client_id"`
	S3Endpoint       *string         `json:"s3_endpoint"`
	S3Region         *string         `json:"s3_region"`
	S3AccessKey      *string         `json:"s3_access_key"`
	S3SecretKey      *string         `json:"s3_secret_key"`
	S3Bucket         *string         `json:"s3_bucket"`
	LogLevel         *string         `json:"log_level"`
	LogFormat        *string         `json:"log_format"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// parseJson overlays the file named by -c/-config. It panics when the file
// cannot be read or parsed.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.BackendAddr, c.BackendAddr)
	setString(&config.StateDSN, c.StateDSN)
	setString(&config.SlotStore, c.SlotStore)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.SlotKey, c.SlotKey)
	setString(&config.JWTSecret, c.JWTSecret)
	setString(&config.DirectorySource, c.DirectorySource)
	setString(&config.AssertionSecret, c.AssertionSecret)
	setString(&config.AssertionIssuer, c.AssertionIssuer)
	setString(&config.OIDCIssuer, c.OIDCIssuer)
	setString(&config.OIDCClientID, c.OIDCClientID)
	setString(&config.S3Endpoint, c.S3Endpoint)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	if c.BackendLatency != nil {
		config.BackendLatency = c.BackendLatency.Duration
	}
	if c.PingInterval != nil {
		config.PingInterval = c.PingInterval.Duration
	}
	if c.Delay != nil {
		config.Delay = c.Delay.Duration
	}
	if c.AccessTTL != nil {
		config.AccessTTL = c.AccessTTL.Duration
	}
	if c.RealtimeInterval != nil {
		config.RealtimeInterval = c.RealtimeInterval.Duration
	}
	if c.DirectorySize != nil {
		config.DirectorySize = *c.DirectorySize
	}
}

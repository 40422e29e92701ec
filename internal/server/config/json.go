package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/insightpulse/internal/flagx"
	"github.com/dmitrijs2005/insightpulse/internal/timex"
)

// JsonConfig is the file form of Config. Durations accept "500ms" or integer
// nanoseconds. Absent keys leave the current value alone.
type JsonConfig struct {
	EndpointAddrGRPC *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN      *string         `json:"database_dsn"`
	Latency          *timex.Duration `json:"latency"`
	Mailer           *string         `json:"mailer"`
	LogLevel         *string         `json:"log_level"`
	LogFormat        *string         `json:"log_format"`
	SeedUsers        *int            `json:"seed_users"`
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

	if c.EndpointAddrGRPC != nil {
		config.EndpointAddrGRPC = *c.EndpointAddrGRPC
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.Latency != nil {
		config.Latency = c.Latency.Duration
	}
	if c.Mailer != nil {
		config.Mailer = *c.Mailer
	}
	if c.LogLevel != nil {
		config.LogLevel = *c.LogLevel
	}
	if c.LogFormat != nil {
		config.LogFormat = *c.LogFormat
	}
	if c.SeedUsers != nil {
		config.SeedUsers = *c.SeedUsers
	}
}

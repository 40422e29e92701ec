package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/insightpulse/internal/flagx"
)

// parseFlags overlays command-line flags:
//
//	-a string     gRPC bind address
//	-d string     PostgreSQL DSN (empty keeps data in memory)
//	-l duration   artificial latency per backend call
//	-m string     mailer: "log" or "outbox"
//	-v string     log level
//	-seed int     generated directory users to create at startup
//
// Only these flags are picked out of args, so other components may define
// their own. Invalid values panic.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-l", "-m", "-v", "-seed", "--seed"})

	fs := flag.NewFlagSet("backend", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.DurationVar(&config.Latency, "l", config.Latency, "artificial latency")
	fs.StringVar(&config.Mailer, "m", config.Mailer, "mailer (log|outbox)")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	fs.IntVar(&config.SeedUsers, "seed", config.SeedUsers, "generated users to seed")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

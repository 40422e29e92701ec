package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/insightpulse/internal/flagx"
)

// parseFlags overlays command-line flags:
//
//	-a string        backend gRPC address (empty runs it in-process)
//	-l duration      in-process backend latency
//	-s string        SQLite file for the session slot
//	-store string    slot store: sqlite or redis
//	-r string        redis URL for the redis slot store
//	-k string        passphrase sealing the session slot
//	-dir string      user directory source: generated or backend
//	-v string        log level
//
// Only these flags are picked out of args. Invalid values panic.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-l", "-s", "-store", "--store", "-r", "-k", "-dir", "--dir", "-v"})

	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.BackendAddr, "a", config.BackendAddr, "backend address and port")
	fs.DurationVar(&config.BackendLatency, "l", config.BackendLatency, "in-process backend latency")
	fs.StringVar(&config.StateDSN, "s", config.StateDSN, "session state database")
	fs.StringVar(&config.SlotStore, "store", config.SlotStore, "session slot store (sqlite|redis)")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")
	fs.StringVar(&config.SlotKey, "k", config.SlotKey, "session slot passphrase")
	fs.StringVar(&config.DirectorySource, "dir", config.DirectorySource, "user directory source (generated|backend)")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

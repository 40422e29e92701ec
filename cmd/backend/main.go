package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/insightpulse/internal/server"
	"github.com/dmitrijs2005/insightpulse/internal/server/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backend",
	Short: "InsightPulse mock backend",
}

// Flags are parsed by the config package, so cobra passes them through.
var serveCmd = &cobra.Command{
	Use:                "serve",
	Short:              "Serve the mock backend over gRPC",
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.Load(args)

		app, err := server.NewApp(ctx, cfg, os.Stdout)
		if err != nil {
			return err
		}
		return app.Run(ctx)
	},
}

var migrateCmd = &cobra.Command{
	Use:                "migrate",
	Short:              "Apply PostgreSQL migrations and exit",
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := server.Migrate(cmd.Context(), config.Load(args)); err != nil {
			return fmt.Errorf("unable to run migrations: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalln(err.Error())
	}
}

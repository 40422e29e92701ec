// Package server assembles the backend process: storage, the Mock Backend
// service and its gRPC endpoint.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/insightpulse/internal/logging"
	"github.com/dmitrijs2005/insightpulse/internal/server/backend"
	"github.com/dmitrijs2005/insightpulse/internal/server/config"
	gs "github.com/dmitrijs2005/insightpulse/internal/server/grpc"
	"github.com/dmitrijs2005/insightpulse/internal/server/mailer"
	"github.com/dmitrijs2005/insightpulse/internal/server/repositories/repomanager"
)

var ErrNoDatabase = errors.New("no database DSN configured")

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	repos   repomanager.RepositoryManager
	backend *backend.Service
}

// NewApp opens storage (running migrations for PostgreSQL), seeds the demo
// accounts and builds the backend service.
func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	logger := logging.New(out, c.LogFormat, c.LogLevel)
	app := &App{config: c, logger: logger}

	if c.DatabaseDSN == "" {
		app.repos = repomanager.NewInMemoryRepositoryManager()
	} else {
		db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.db = db
		app.repos = repomanager.NewPostgresRepositoryManager()
	}

	if err := app.repos.RunMigrations(ctx, app.db); err != nil {
		app.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	var m mailer.Mailer = mailer.NewLogMailer(logger)
	if c.Mailer == "outbox" {
		m = mailer.NewOutbox()
	}

	users := app.repos.Users(app.db)
	if c.SeedUsers >= 0 {
		if err := backend.Seed(ctx, users, backend.DemoAccounts, c.SeedUsers); err != nil {
			app.Close()
			return nil, err
		}
	}

	app.backend = backend.NewService(users, app.repos.LoginLogs(app.db), m, logger, c.Latency)
	return app, nil
}

// Backend returns the assembled service.
func (app *App) Backend() *backend.Service {
	return app.backend
}

func (app *App) Close() {
	if app.db != nil {
		_ = app.db.Close()
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves gRPC until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer app.Close()

	app.initSignalHandler(cancel)
	app.logger.Info(ctx, "Starting app...", "in_memory", app.db == nil)

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.backend)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server failed", "error", err.Error())
		return err
	}
	return nil
}

// Migrate applies the PostgreSQL migrations and exits.
func Migrate(ctx context.Context, c *config.Config) error {
	if c.DatabaseDSN == "" {
		return ErrNoDatabase
	}
	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()
	return repomanager.NewPostgresRepositoryManager().RunMigrations(ctx, db)
}

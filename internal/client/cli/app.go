package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/insightpulse/internal/client/analytics"
	"github.com/dmitrijs2005/insightpulse/internal/client/client"
	"github.com/dmitrijs2005/insightpulse/internal/client/config"
	"github.com/dmitrijs2005/insightpulse/internal/client/directory"
	"github.com/dmitrijs2005/insightpulse/internal/client/guard"
	"github.com/dmitrijs2005/insightpulse/internal/client/identity"
	"github.com/dmitrijs2005/insightpulse/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/insightpulse/internal/client/session"
	"github.com/dmitrijs2005/insightpulse/internal/logging"
	"github.com/dmitrijs2005/insightpulse/internal/netx"
	"github.com/dmitrijs2005/insightpulse/internal/server/backend"
	"github.com/dmitrijs2005/insightpulse/internal/server/mailer"
	"github.com/dmitrijs2005/insightpulse/internal/server/repositories/repomanager"
)

type Mode string

const (
	ModeLocal   Mode = "local"
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

const redisSlotHash = "insightpulse:dashboard"

type App struct {
	config    *config.Config
	logger    logging.Logger
	backend   client.Backend
	session   *session.Store
	analytics *analytics.Store
	directory *directory.Store
	router    *guard.Router
	verifier  identity.Verifier
	// outbox is set when the backend runs in-process.
	outbox *mailer.Outbox

	reader *bufio.Reader
	out    io.Writer

	mu       sync.Mutex
	mode     Mode
	location string
	// from is the page a login redirect interrupted.
	from string

	closers []func() error
}

// NewApp wires the stores to a backend: in-process when no address is
// configured, otherwise the gRPC endpoint.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out io.Writer) (*App, error) {
	logger := logging.New(os.Stderr, c.LogFormat, c.LogLevel)
	a := &App{
		config:   c,
		logger:   logger,
		router:   guard.NewRouter(guard.DefaultRoutes()),
		reader:   bufio.NewReader(in),
		out:      out,
		location: "/",
	}

	if err := a.initBackend(ctx); err != nil {
		a.Close()
		return nil, err
	}

	slot, err := a.openSlot(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("session storage: %w", err)
	}

	if c.OIDCIssuer != "" {
		v, err := identity.NewOIDCVerifier(ctx, c.OIDCIssuer, c.OIDCClientID)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("oidc: %w", err)
		}
		a.verifier = v
	} else {
		a.verifier = identity.NewHMACVerifier([]byte(c.AssertionSecret), c.AssertionIssuer, "")
	}

	a.session = session.NewStore(a.backend, a.verifier, slot, session.Config{
		Secret:    []byte(c.JWTSecret),
		AccessTTL: c.AccessTTL,
		Delay:     c.Delay,
		ClientIP:  netx.LocalIP(),
		UserAgent: "insightpulse-dashboard",
	}, logger)

	var uploader analytics.Uploader
	if c.S3Bucket != "" {
		u, err := analytics.NewS3Uploader(ctx, analytics.S3Config{
			Endpoint:  c.S3Endpoint,
			Region:    c.S3Region,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Bucket:    c.S3Bucket,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		uploader = u
	}
	a.analytics = analytics.NewStore(nil, uploader, analytics.Config{
		Delay:            c.Delay,
		RealtimeInterval: c.RealtimeInterval,
	}, logger)

	var source directory.Source
	if c.DirectorySource == config.DirectoryBackend {
		source = directory.NewBackendSource(a.backend, 0)
	} else {
		source = directory.NewGeneratedSource(nil, c.DirectorySize, 0, c.Delay)
	}
	a.directory = directory.NewStore(source, logger)

	if err := a.session.Restore(ctx); err != nil {
		logger.Warn(ctx, "session restore failed", "error", err)
	}
	return a, nil
}

func (a *App) initBackend(ctx context.Context) error {
	if a.config.BackendAddr != "" {
		c, err := client.NewGRPCClient(a.config.BackendAddr)
		if err != nil {
			return fmt.Errorf("backend client: %w", err)
		}
		a.closers = append(a.closers, c.Close)
		a.backend = c
		a.mode = ModeOffline
		return nil
	}

	repos := repomanager.NewInMemoryRepositoryManager()
	if err := repos.RunMigrations(ctx, nil); err != nil {
		return err
	}
	users := repos.Users(nil)
	if err := backend.Seed(ctx, users, backend.DemoAccounts, a.config.DirectorySize); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	a.outbox = mailer.NewOutbox()
	a.backend = backend.NewService(users, repos.LoginLogs(nil), a.outbox, a.logger, a.config.BackendLatency)
	a.mode = ModeLocal
	return nil
}

func (a *App) openSlot(ctx context.Context) (*session.Slot, error) {
	var repo metadata.Repository

	switch a.config.SlotStore {
	case config.SlotStoreRedis:
		rc, err := metadata.OpenRedis(ctx, a.config.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rc.Close)
		repo = metadata.NewRedisRepository(rc, redisSlotHash)
	case config.SlotStoreSQLite, "":
		db, err := client.OpenStateDB(ctx, a.config.StateDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		repo = metadata.NewSQLiteRepository(db)
	default:
		return nil, fmt.Errorf("unknown slot store %q", a.config.SlotStore)
	}
	return session.NewSlot(repo, a.config.SlotKey), nil
}

// Close stops background work and releases connections.
func (a *App) Close() {
	if a.analytics != nil {
		a.analytics.StopRealtime()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != mode {
		a.mode = mode
		a.logger.Info(context.Background(), "backend mode changed", "mode", mode)
	}
}

func (a *App) getMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// StartOnlineStatusWatcher pings a remote backend every interval and flips
// between online and offline. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	check := func() {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := a.backend.Ping(pctx); err != nil {
			a.setMode(ModeOffline)
		} else {
			a.setMode(ModeOnline)
		}
	}
	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			check()
		case <-ctx.Done():
			return
		}
	}
}

// Run restores the session and reads commands from the input until EOF or
// exit.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.getMode() != ModeLocal && a.config.PingInterval > 0 {
		go a.StartOnlineStatusWatcher(ctx, a.config.PingInterval)
	}

	fmt.Fprintln(a.out, "Welcome to InsightPulse Pro (type 'help' for commands)")
	if a.session.State().IsAuthenticated {
		a.navigate(ctx, guard.LandingPath)
	}
	runREPL(ctx, a, a.status, a.reader, a.out)
}

package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/insightpulse/internal/client/client"
	"github.com/dmitrijs2005/insightpulse/internal/client/config"
	"github.com/dmitrijs2005/insightpulse/internal/client/guard"
	"github.com/dmitrijs2005/insightpulse/internal/logging"
)

func testConfig(dsn string) *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.StateDSN = dsn
	c.BackendLatency = 0
	c.Delay = 0
	c.DirectorySize = 0
	c.RealtimeInterval = 10 * time.Millisecond
	c.LogLevel = "error"
	return c
}

// newTestApp builds an in-process App reading input and writing its whole
// transcript to the returned buffer.
func newTestApp(t *testing.T, c *config.Config, input string) (*App, *bytes.Buffer) {
	t.Helper()
	stubTerminal(t, false, nil)

	var out bytes.Buffer

	app, err := NewApp(context.Background(), c, strings.NewReader(input), &out)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app, &out
}

func TestApp_LoginReturnsToRequestedPage(t *testing.T) {
	app, out := newTestApp(t, testConfig(":memory:"),
		"goto /analytics\nlogin admin@example.com\nadmin123\nwhoami\nexit\n")

	app.Run(context.Background())

	got := out.String()
	assert.Contains(t, got, "Welcome to InsightPulse Pro")
	assert.Contains(t, got, "Please sign in to continue.")
	assert.Contains(t, got, "Welcome, Demo Admin!")
	assert.Contains(t, got, "== Analytics ==")
	assert.Contains(t, got, "Demo Admin <admin@example.com> role=admin verified=true")
	assert.Contains(t, got, "Bye!")
	assert.Equal(t, "/analytics", app.currentPage())
}

func TestApp_BadPassword(t *testing.T) {
	app, out := newTestApp(t, testConfig(":memory:"), "login admin@example.com\nwrong\n")

	app.Run(context.Background())

	assert.Contains(t, out.String(), "Error:")
	assert.False(t, app.isLoggedIn())
	assert.NotEmpty(t, app.session.State().Error)
}

func TestApp_ViewerDeniedAdminPages(t *testing.T) {
	app, out := newTestApp(t, testConfig(":memory:"),
		"login viewer@example.com\nviewer123\nusers\nrole user-1 admin\n")

	app.Run(context.Background())

	got := out.String()
	assert.Contains(t, got, guard.AccessDenied)
	assert.NotContains(t, got, "== User management ==")
	assert.NotContains(t, got, "Updated role")
	assert.Equal(t, guard.LandingPath, app.currentPage())
}

func TestApp_AdminManagesUsers(t *testing.T) {
	app, out := newTestApp(t, testConfig(":memory:"),
		"login admin@example.com\nadmin123\nusers\nrole user-1 analyst\nselect user-1\nuserdel user-2\nlogs\nrole user-1 wizard\n")

	app.Run(context.Background())

	got := out.String()
	assert.Contains(t, got, "== User management ==")
	assert.Contains(t, got, "Updated role of user-1 to analyst")
	assert.Contains(t, got, "Deleted user user-2")
	assert.Contains(t, got, "TIME")

	st := app.directory.State()
	require.NotNil(t, st.Selected)
	assert.Equal(t, "user-1", st.Selected.ID)
	assert.Equal(t, "analyst", string(st.Selected.Role))
	for _, u := range st.Users {
		assert.NotEqual(t, "user-2", u.ID)
	}
	assert.Contains(t, got, "Error:", "unknown role is reported")
}

func TestApp_RegisterVerifyLogin(t *testing.T) {
	app, out := newTestApp(t, testConfig(":memory:"), "bob@example.com\nBob\nsecret1\n")
	ctx := context.Background()

	require.NoError(t, app.register(ctx, nil))
	assert.Contains(t, out.String(), "Account created.")
	assert.Equal(t, "/verify-email", app.currentPage())

	require.NoError(t, app.inbox(ctx, []string{"bob@example.com"}))
	m := regexp.MustCompile(`Code: (\d{6})`).FindStringSubmatch(out.String())
	require.NotNil(t, m, out.String())

	require.NoError(t, app.verify(ctx, []string{"bob@example.com", m[1]}))
	assert.Equal(t, guard.LoginPath, app.currentPage())

	app.reader.Reset(strings.NewReader("secret1\n"))
	require.NoError(t, app.login(ctx, []string{"bob@example.com"}))
	assert.True(t, app.isLoggedIn())
	assert.Equal(t, guard.LandingPath, app.currentPage())
	assert.Contains(t, out.String(), "== Dashboard ==")
}

func TestApp_UnverifiedLoginAsksForVerification(t *testing.T) {
	app, out := newTestApp(t, testConfig(":memory:"), "carol@example.com\nCarol\nsecret1\nsecret1\n")
	ctx := context.Background()

	require.NoError(t, app.register(ctx, nil))
	require.NoError(t, app.login(ctx, []string{"carol@example.com"}))

	assert.False(t, app.isLoggedIn())
	assert.Contains(t, out.String(), "Please verify your email before logging in.")
	assert.Equal(t, "/verify-email", app.currentPage())
}

func TestApp_ResetPassword(t *testing.T) {
	app, out := newTestApp(t, testConfig(":memory:"), "")
	ctx := context.Background()

	require.NoError(t, app.reset(ctx, []string{"analyst@example.com"}))
	require.NoError(t, app.inbox(ctx, []string{"analyst@example.com"}))
	m := regexp.MustCompile(`Code: (\d{6})`).FindStringSubmatch(out.String())
	require.NotNil(t, m, out.String())

	app.reader.Reset(strings.NewReader("newpass1\nnewpass1\n"))
	require.NoError(t, app.reset(ctx, []string{"analyst@example.com", m[1]}))
	require.NoError(t, app.login(ctx, []string{"analyst@example.com"}))
	assert.True(t, app.isLoggedIn())
	assert.Equal(t, "analyst", string(app.session.State().User.Role))
}

func TestApp_GoogleDevToken(t *testing.T) {
	app, out := newTestApp(t, testConfig(":memory:"), "google --dev dana@example.com Dana Scully\nprofile Dana S.\ngoogle\n")

	app.Run(context.Background())

	got := out.String()
	assert.Contains(t, got, "Welcome, Dana Scully!")
	assert.Contains(t, got, "Profile updated.")
	assert.Contains(t, got, "Usage: google <token>")
	require.True(t, app.isLoggedIn())
	assert.Equal(t, "Dana S.", app.session.State().User.Name)
}

func TestApp_RealtimeStopsWhenLeavingDashboard(t *testing.T) {
	app, _ := newTestApp(t, testConfig(":memory:"), "analyst@example.com\nanalyst123\n")
	ctx := context.Background()

	require.NoError(t, app.login(ctx, nil))
	require.Equal(t, guard.LandingPath, app.currentPage())

	require.NoError(t, app.realtime(ctx, []string{"on"}))
	require.True(t, app.analytics.RealtimeRunning())
	assert.Eventually(t, func() bool {
		return app.analytics.State().Realtime.ActiveUsers > 0
	}, time.Second, 5*time.Millisecond)

	app.navigate(ctx, "/profile")
	assert.False(t, app.analytics.RealtimeRunning())
}

func TestApp_ExportDisabled(t *testing.T) {
	app, out := newTestApp(t, testConfig(":memory:"), "login analyst@example.com\nanalyst123\nexport\n")

	app.Run(context.Background())

	assert.Contains(t, out.String(), "Error: export storage is not configured")
}

func TestApp_AnalyticsDays(t *testing.T) {
	app, out := newTestApp(t, testConfig(":memory:"), "analyst@example.com\nanalyst123\n")
	ctx := context.Background()
	require.NoError(t, app.login(ctx, nil))

	require.NoError(t, app.showAnalytics(ctx, []string{"7"}))
	assert.Len(t, app.analytics.State().Data, 7)
	assert.Contains(t, out.String(), "DATE")

	assert.ErrorIs(t, app.showAnalytics(ctx, []string{"zero"}), errUsage)
}

func TestApp_SessionSurvivesRestart(t *testing.T) {
	c := testConfig(filepath.Join(t.TempDir(), "state.db"))
	c.SlotKey = "correct horse"

	first, _ := newTestApp(t, c, "login admin@example.com\nadmin123\n")
	first.Run(context.Background())
	require.True(t, first.isLoggedIn())

	second, out := newTestApp(t, c, "whoami\nlogout\nwhoami\n")
	require.True(t, second.isLoggedIn())
	second.Run(context.Background())

	got := out.String()
	assert.Contains(t, got, "== Dashboard ==")
	assert.Contains(t, got, "role=admin")
	assert.Contains(t, got, "Signed out.")
	assert.Contains(t, got, "Not signed in.")

	third, _ := newTestApp(t, c, "")
	assert.False(t, third.isLoggedIn())
}

func TestApp_Status(t *testing.T) {
	app, _ := newTestApp(t, testConfig(":memory:"), "viewer@example.com\nviewer123\n")

	assert.Equal(t, "(/)", app.status())
	require.NoError(t, app.login(context.Background(), nil))
	assert.Equal(t, "(viewer@example.com viewer /dashboard)", app.status())

	app.setMode(ModeOffline)
	assert.Equal(t, "(viewer@example.com viewer offline /dashboard)", app.status())
}

func TestApp_UnknownPage(t *testing.T) {
	app, out := newTestApp(t, testConfig(":memory:"), "goto /nowhere\ngoto\nfrobnicate\n")

	app.Run(context.Background())

	got := out.String()
	assert.Contains(t, got, "Page not found: /nowhere")
	assert.Contains(t, got, "Usage: goto <path>")
	assert.Contains(t, got, "Unknown command: frobnicate")
	assert.Less(t, strings.Index(got, "Welcome to InsightPulse Pro"), strings.Index(got, "ip (/)> "))
	assert.Less(t, strings.Index(got, "Page not found"), strings.Index(got, "Usage: goto"), "prompts, command output and errors share one transcript")
	assert.Equal(t, "/", app.currentPage())
}

func TestSetMode_ChangesAndLogsOnce(t *testing.T) {
	var buf bytes.Buffer
	app := &App{logger: logging.New(&buf, "text", "info")}

	app.setMode(ModeOnline)
	assert.Equal(t, ModeOnline, app.getMode())
	assert.Contains(t, buf.String(), "backend mode changed")

	buf.Reset()
	app.setMode(ModeOnline)
	assert.Empty(t, buf.String())

	app.setMode(ModeOffline)
	assert.Equal(t, ModeOffline, app.getMode())
	assert.NotEmpty(t, buf.String())
}

type pingBackend struct {
	client.Backend
	err error
}

func (p pingBackend) Ping(context.Context) error { return p.err }

func TestStartOnlineStatusWatcher(t *testing.T) {
	app := &App{logger: logging.Nop(), backend: pingBackend{}, mode: ModeOffline}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		app.StartOnlineStatusWatcher(ctx, time.Hour)
		close(done)
	}()

	assert.Eventually(t, func() bool { return app.getMode() == ModeOnline }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/insightpulse/internal/client/analytics"
	"github.com/dmitrijs2005/insightpulse/internal/client/directory"
	"github.com/dmitrijs2005/insightpulse/internal/client/guard"
	"github.com/dmitrijs2005/insightpulse/internal/client/identity"
	"github.com/dmitrijs2005/insightpulse/internal/client/session"
	"github.com/dmitrijs2005/insightpulse/internal/common"
	"github.com/dmitrijs2005/insightpulse/internal/models"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

var mailCode = regexp.MustCompile(`<strong>(\d+)</strong>`)

const devAssertionTTL = 5 * time.Minute

func (a *App) isLoggedIn() bool {
	return a.session.State().IsAuthenticated
}

func (a *App) status() string {
	parts := []string{}
	if st := a.session.State(); st.User != nil {
		parts = append(parts, st.User.Email, string(st.User.Role))
	}
	if mode := a.getMode(); mode != ModeLocal {
		parts = append(parts, string(mode))
	}
	a.mu.Lock()
	parts = append(parts, a.location)
	a.mu.Unlock()
	return "(" + strings.Join(parts, " ") + ")"
}

func (a *App) shutdown(context.Context) {
	a.analytics.StopRealtime()
}

func (a *App) commands() []command {
	return []command{
		{name: "register", run: a.register},
		{name: "login", usage: "login [email]", run: a.login},
		{name: "google", usage: "google <token> | google --dev <email> [name]", run: a.google},
		{name: "verify", usage: "verify [email] [code]", run: a.verify},
		{name: "resend", usage: "resend [email]", run: a.resend},
		{name: "reset", usage: "reset <email> [code]", run: a.reset},
		{name: "inbox", usage: "inbox <email>", run: a.inbox},
		{name: "goto", aliases: []string{"cd"}, usage: "goto <path>", run: a.gotoPage},
		{name: "whoami", run: a.whoami},
		{name: "dashboard", signedIn: true, run: a.page(guard.LandingPath)},
		{name: "analytics", signedIn: true, usage: "analytics [days]", run: a.showAnalytics},
		{name: "realtime", signedIn: true, usage: "realtime [on|off]", run: a.realtime},
		{name: "export", signedIn: true, run: a.export},
		{name: "users", signedIn: true, run: a.page("/admin/users")},
		{name: "logs", signedIn: true, run: a.logs},
		{name: "useradd", signedIn: true, run: a.userAdd},
		{name: "role", signedIn: true, usage: "role <id> <admin|analyst|viewer>", run: a.role},
		{name: "userdel", signedIn: true, usage: "userdel <id>", run: a.userDel},
		{name: "select", signedIn: true, usage: "select <id>", run: a.selectUser},
		{name: "profile", signedIn: true, usage: "profile [name]", run: a.profile},
		{name: "logout", signedIn: true, run: a.logout},
	}
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) prompt(label string) (string, error) {
	return getSimpleText(a.reader, label, a.out)
}

func argOrPrompt(a *App, args []string, i int, label string) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	return a.prompt(label)
}

// navigate asks the router for location and acts on the decision. It
// reports whether the page was rendered.
func (a *App) navigate(ctx context.Context, location string) bool {
	d := a.router.Navigate(a.session.State(), location)

	switch d.Outcome {
	case guard.RedirectLogin:
		a.mu.Lock()
		a.from = d.From
		a.mu.Unlock()
		a.println("Please sign in to continue.")
		a.moveTo(guard.LoginPath)
		return false
	case guard.RedirectLanding:
		a.println(d.Notice)
		a.moveTo(d.Path)
		a.render(ctx, d.Path)
		return false
	case guard.NotFound:
		a.println("Page not found:", d.Path)
		return false
	}

	a.moveTo(d.Path)
	a.render(ctx, d.Path)
	return true
}

// moveTo changes the current page. The realtime feed belongs to the
// dashboard and stops when leaving it.
func (a *App) moveTo(path string) {
	a.mu.Lock()
	prev := a.location
	a.location = path
	a.mu.Unlock()

	if prev == guard.LandingPath && path != guard.LandingPath {
		a.analytics.StopRealtime()
	}
}

func (a *App) currentPage() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.location
}

func (a *App) render(ctx context.Context, path string) {
	var err error
	switch path {
	case guard.LandingPath:
		err = a.renderDashboard(ctx)
	case "/analytics":
		err = a.renderAnalytics(ctx, nil)
	case "/admin/users":
		err = a.renderUsers(ctx)
	case "/profile":
		a.renderProfile()
	case "/settings":
		a.renderSettings()
	default:
		if rt, ok := a.router.Lookup(path); ok {
			a.println("==", rt.Title, "==")
		}
	}
	if err != nil {
		a.println("Error:", err.Error())
	}
}

func (a *App) page(path string) func(context.Context, []string) error {
	return func(ctx context.Context, _ []string) error {
		a.navigate(ctx, path)
		return nil
	}
}

func (a *App) gotoPage(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	a.navigate(ctx, args[0])
	return nil
}

// afterLogin returns to the page a login redirect interrupted, or the
// dashboard.
func (a *App) afterLogin(ctx context.Context) {
	a.mu.Lock()
	target := a.from
	a.from = ""
	a.mu.Unlock()

	if target == "" {
		target = guard.LandingPath
	}
	a.navigate(ctx, target)
}

func (a *App) register(ctx context.Context, _ []string) error {
	email, err := a.prompt("Enter email")
	if err != nil {
		return err
	}
	name, err := a.prompt("Enter name")
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	err = a.session.Register(ctx, email, name, string(password))
	if err != nil && !errors.Is(err, common.ErrEmailDispatchFailed) {
		return err
	}
	if err != nil {
		a.println("Account created, but the verification email could not be sent. Use 'resend' to try again.")
	} else {
		a.println("Account created. Check your inbox for a verification code, then run 'verify'.")
	}
	a.moveTo("/verify-email")
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	email, err := argOrPrompt(a, args, 0, "Enter email")
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.session.Login(ctx, email, string(password))
	if err != nil {
		return err
	}
	if res.NeedsVerification {
		a.println(a.session.State().Error)
		a.println("Run 'verify " + res.Email + "' with the code from your inbox.")
		a.moveTo("/verify-email")
		return nil
	}

	a.println("Welcome, " + a.session.State().User.Name + "!")
	a.afterLogin(ctx)
	return nil
}

func (a *App) google(ctx context.Context, args []string) error {
	var token string
	switch {
	case len(args) >= 2 && args[0] == "--dev":
		if a.config.OIDCIssuer != "" {
			return errors.New("dev tokens are disabled when an OIDC issuer is configured")
		}
		name := strings.Join(args[2:], " ")
		t, err := identity.MintHMAC([]byte(a.config.AssertionSecret), a.config.AssertionIssuer, "", args[1], name, devAssertionTTL)
		if err != nil {
			return err
		}
		token = t
	case len(args) == 1:
		token = args[0]
	default:
		return errUsage
	}

	if err := a.session.GoogleLogin(ctx, token); err != nil {
		return err
	}
	a.println("Welcome, " + a.session.State().User.Name + "!")
	a.afterLogin(ctx)
	return nil
}

func (a *App) verify(ctx context.Context, args []string) error {
	email, err := argOrPrompt(a, args, 0, "Enter email")
	if err != nil {
		return err
	}
	code, err := argOrPrompt(a, args, 1, "Enter verification code")
	if err != nil {
		return err
	}
	if err := a.session.VerifyEmail(ctx, email, code); err != nil {
		return err
	}
	a.println("Email verified. You can now log in.")
	if !a.isLoggedIn() {
		a.moveTo(guard.LoginPath)
	}
	return nil
}

func (a *App) resend(ctx context.Context, args []string) error {
	email, err := argOrPrompt(a, args, 0, "Enter email")
	if err != nil {
		return err
	}
	if err := a.session.ResendVerification(ctx, email); err != nil {
		return err
	}
	a.println("A new verification code has been sent.")
	return nil
}

// reset with only an email requests a code; with a code it sets the new
// password.
func (a *App) reset(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	email := args[0]
	a.moveTo("/reset-password")

	if len(args) == 1 {
		if err := a.session.ResetPassword(ctx, email); err != nil {
			return err
		}
		a.println("If that address has an account, a reset code is on its way.")
		return nil
	}

	password, err := getPassword(a.reader, "Enter new password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.ConfirmResetPassword(ctx, email, args[1], string(password)); err != nil {
		return err
	}
	a.println("Password updated. You can now log in.")
	a.moveTo(guard.LoginPath)
	return nil
}

// inbox shows mail delivered by the in-process backend.
func (a *App) inbox(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if a.outbox == nil {
		return errors.New("inbox is only available with the in-process backend")
	}
	msg, ok := a.outbox.Last(args[0])
	if !ok {
		a.println("No mail for", args[0])
		return nil
	}
	a.println("Subject:", msg.Subject)
	if m := mailCode.FindStringSubmatch(msg.HTML); m != nil {
		a.println("Code:", m[1])
	}
	return nil
}

func (a *App) whoami(context.Context, []string) error {
	st := a.session.State()
	if !st.IsAuthenticated {
		a.println("Not signed in.")
		return nil
	}
	u := st.User
	a.println(fmt.Sprintf("%s <%s> role=%s verified=%t", u.Name, u.Email, u.Role, u.EmailVerified))
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	a.analytics.StopRealtime()
	a.session.Logout(ctx)
	a.moveTo("/")
	a.println("Signed out.")
	return nil
}

func (a *App) renderDashboard(ctx context.Context) error {
	if len(a.analytics.State().Data) == 0 {
		if err := a.analytics.Fetch(ctx, nil); err != nil {
			return err
		}
	}
	sum := a.analytics.Summary()
	rt := a.analytics.State().Realtime

	a.println("== Dashboard ==")
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Page views\t%d\n", sum.TotalPageViews)
	fmt.Fprintf(tw, "Unique visitors\t%d\n", sum.TotalVisitors)
	fmt.Fprintf(tw, "Conversions\t%d\n", sum.TotalConversions)
	fmt.Fprintf(tw, "Revenue\t$%d\n", sum.TotalRevenue)
	fmt.Fprintf(tw, "Bounce rate\t%.1f%%\n", sum.AvgBounceRate*100)
	fmt.Fprintf(tw, "Active users\t%d\n", rt.ActiveUsers)
	fmt.Fprintf(tw, "Pages / minute\t%d\n", rt.PagesPerMinute)
	return tw.Flush()
}

func (a *App) renderAnalytics(ctx context.Context, patch *analytics.FilterPatch) error {
	if err := a.analytics.Fetch(ctx, patch); err != nil {
		return err
	}
	st := a.analytics.State()

	a.println("== Analytics ==")
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tVIEWS\tVISITORS\tBOUNCE\tDURATION\tCONV\tREVENUE")
	for _, p := range st.Data {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\t%ds\t%d\t$%d\n",
			p.Date, p.PageViews, p.UniqueVisitors, p.BounceRate*100, p.AvgSessionDuration, p.Conversions, p.Revenue)
	}
	return tw.Flush()
}

func (a *App) showAnalytics(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	if !a.navigateQuiet("/analytics") {
		return nil
	}
	var patch *analytics.FilterPatch
	if len(args) == 1 {
		days, err := strconv.Atoi(args[0])
		if err != nil || days < 1 {
			return errUsage
		}
		patch = analytics.LastDays(time.Now(), days)
	}
	return a.renderAnalytics(ctx, patch)
}

// navigateQuiet is navigate without rendering the target page, for
// commands that render it themselves.
func (a *App) navigateQuiet(location string) bool {
	d := a.router.Navigate(a.session.State(), location)
	if d.Outcome == guard.Render {
		a.moveTo(d.Path)
		return true
	}
	a.navigate(context.Background(), location)
	return false
}

func (a *App) realtime(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	if len(args) == 0 {
		rt := a.analytics.State().Realtime
		running := "off"
		if a.analytics.RealtimeRunning() {
			running = "on"
		}
		a.println(fmt.Sprintf("realtime %s: %d active users, %d pages/min (updated %s)",
			running, rt.ActiveUsers, rt.PagesPerMinute, rt.LastUpdated.Format(time.TimeOnly)))
		return nil
	}

	switch args[0] {
	case "on":
		if a.currentPage() != guard.LandingPath && !a.navigateQuiet(guard.LandingPath) {
			return nil
		}
		a.analytics.StartRealtime(ctx)
		a.println("Realtime updates on.")
	case "off":
		a.analytics.StopRealtime()
		a.println("Realtime updates off.")
	default:
		return errUsage
	}
	return nil
}

func (a *App) export(ctx context.Context, _ []string) error {
	if !a.navigateQuiet("/analytics") {
		return nil
	}
	if len(a.analytics.State().Data) == 0 {
		if err := a.analytics.Fetch(ctx, nil); err != nil {
			return err
		}
	}
	key, err := a.analytics.Export(ctx)
	if err != nil {
		return err
	}
	a.println("Exported to", key)
	return nil
}

func (a *App) renderUsers(ctx context.Context) error {
	if err := a.directory.FetchUsers(ctx); err != nil {
		return err
	}
	a.printUsers(a.directory.State().Users)
	return nil
}

func (a *App) printUsers(users []models.User) {
	a.println("== User management ==")
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tVERIFIED\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n", u.ID, u.Email, u.Name, u.Role, u.EmailVerified, u.CreatedAt.Format(models.DateLayout))
	}
	_ = tw.Flush()
}

// admin guards the user console commands.
func (a *App) admin() bool {
	return a.navigateQuiet("/admin/users")
}

func (a *App) logs(ctx context.Context, _ []string) error {
	if !a.admin() {
		return nil
	}
	if err := a.directory.FetchLoginLogs(ctx); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tEMAIL\tRESULT\tIP")
	for _, l := range a.directory.State().LoginLogs {
		result := "failed"
		if l.Success {
			result = "success"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Timestamp.Format(time.DateTime), l.Email, result, l.IPAddress)
	}
	return tw.Flush()
}

func (a *App) userAdd(ctx context.Context, _ []string) error {
	if !a.admin() {
		return nil
	}
	email, err := a.prompt("Enter email")
	if err != nil {
		return err
	}
	name, err := a.prompt("Enter name")
	if err != nil {
		return err
	}
	roleText, err := a.prompt("Enter role (admin, analyst, viewer)")
	if err != nil {
		return err
	}
	role, err := models.ParseRole(roleText)
	if err != nil {
		return err
	}

	u, err := a.directory.CreateUser(ctx, directory.NewUser{Email: email, Name: name, Role: role, EmailVerified: true})
	if err != nil {
		return err
	}
	a.println("Created user", u.ID)
	return nil
}

func (a *App) role(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	if !a.admin() {
		return nil
	}
	role, err := models.ParseRole(args[1])
	if err != nil {
		return err
	}
	if err := a.directory.UpdateUserRole(ctx, args[0], role); err != nil {
		return err
	}
	a.println("Updated role of", args[0], "to", role)
	return nil
}

func (a *App) userDel(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if !a.admin() {
		return nil
	}
	if err := a.directory.DeleteUser(ctx, args[0]); err != nil {
		return err
	}
	a.println("Deleted user", args[0])
	return nil
}

func (a *App) selectUser(_ context.Context, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	if !a.admin() {
		return nil
	}
	id := ""
	if len(args) == 1 {
		id = args[0]
	}
	a.directory.SelectUser(id)

	sel := a.directory.State().Selected
	if sel == nil {
		a.println("No user selected.")
		return nil
	}
	a.printUsers([]models.User{*sel})
	return nil
}

func (a *App) renderProfile() {
	u := a.session.State().User
	if u == nil {
		return
	}
	a.println("== Profile ==")
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\t%s\n", u.Name)
	fmt.Fprintf(tw, "Email\t%s\n", u.Email)
	fmt.Fprintf(tw, "Role\t%s\n", u.Role)
	fmt.Fprintf(tw, "Verified\t%t\n", u.EmailVerified)
	if u.Avatar != "" {
		fmt.Fprintf(tw, "Avatar\t%s\n", u.Avatar)
	}
	_ = tw.Flush()
}

func (a *App) profile(ctx context.Context, args []string) error {
	if !a.navigateQuiet("/profile") {
		return nil
	}
	if len(args) > 0 {
		name := strings.Join(args, " ")
		if err := a.session.UpdateProfile(ctx, session.ProfilePatch{Name: &name}); err != nil {
			return err
		}
		a.println("Profile updated.")
	}
	a.renderProfile()
	return nil
}

func (a *App) renderSettings() {
	a.println("== Settings ==")
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	backendAddr := a.config.BackendAddr
	if backendAddr == "" {
		backendAddr = "in-process"
	}
	fmt.Fprintf(tw, "Backend\t%s\n", backendAddr)
	fmt.Fprintf(tw, "Session store\t%s\n", a.config.SlotStore)
	fmt.Fprintf(tw, "Directory source\t%s\n", a.config.DirectorySource)
	fmt.Fprintf(tw, "Realtime interval\t%s\n", a.config.RealtimeInterval)
	_ = tw.Flush()
}

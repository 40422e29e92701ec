package session

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/dmitrijs2005/insightpulse/internal/auth"
	"github.com/dmitrijs2005/insightpulse/internal/client/client"
	"github.com/dmitrijs2005/insightpulse/internal/client/identity"
	"github.com/dmitrijs2005/insightpulse/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/insightpulse/internal/common"
	"github.com/dmitrijs2005/insightpulse/internal/logging"
	"github.com/dmitrijs2005/insightpulse/internal/models"
	"github.com/dmitrijs2005/insightpulse/internal/server/backend"
	"github.com/dmitrijs2005/insightpulse/internal/server/mailer"
	"github.com/dmitrijs2005/insightpulse/internal/server/repositories/loginlogs"
	"github.com/dmitrijs2005/insightpulse/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSecret      = []byte("session-test-secret")
	assertionKey    = []byte("assertion-secret")
	codePattern     = regexp.MustCompile(`<strong>(\d{6})</strong>`)
	assertionIssuer = "insightpulse-dev"
)

type fixture struct {
	backend *backend.Service
	outbox  *mailer.Outbox
	repo    metadata.Repository
	store   *Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	outbox := mailer.NewOutbox()
	svc := backend.NewService(users.NewMemoryRepository(), loginlogs.NewMemoryRepository(), outbox, logging.Nop(), 0)

	db, err := client.OpenStateDB(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{backend: svc, outbox: outbox, repo: metadata.NewSQLiteRepository(db)}
	f.store = f.newStore()
	return f
}

func (f *fixture) newStore() *Store {
	verifier := identity.NewHMACVerifier(assertionKey, assertionIssuer, "")
	return NewStore(f.backend, verifier, NewSlot(f.repo, ""), Config{Secret: testSecret, ClientIP: "127.0.0.1", UserAgent: "test"}, logging.Nop())
}

func (f *fixture) lastCode(t *testing.T, to string) string {
	t.Helper()
	msg, ok := f.outbox.Last(to)
	require.True(t, ok, "no email sent to %s", to)
	m := codePattern.FindStringSubmatch(msg.HTML)
	require.Len(t, m, 2)
	return m[1]
}

func (f *fixture) record(t *testing.T, email string) models.UserRecord {
	t.Helper()
	page, err := f.backend.LookupUsers(context.Background(), models.ByEmail(email))
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	return page.Records[0]
}

func TestStore_RegisterVerifyLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Register(ctx, "alice@example.com", "Alice", "pw1"))
	st := f.store.State()
	assert.False(t, st.IsAuthenticated)
	assert.False(t, st.IsLoading)
	assert.Empty(t, st.Error)

	msg, ok := f.outbox.Last("alice@example.com")
	require.True(t, ok)
	assert.Equal(t, "Verify Your InsightPulse Pro Account", msg.Subject)
	assert.Equal(t, common.SupportSender, msg.From)
	code := f.lastCode(t, "alice@example.com")
	assert.Regexp(t, `^[1-9]\d{5}$`, code)

	res, err := f.store.Login(ctx, "alice@example.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, LoginResult{NeedsVerification: true, Email: "alice@example.com"}, res)
	st = f.store.State()
	assert.False(t, st.IsAuthenticated)
	assert.Equal(t, MsgVerificationRequired, st.Error)

	require.NoError(t, f.store.VerifyEmail(ctx, "alice@example.com", code))
	assert.True(t, f.record(t, "alice@example.com").Verified)

	res, err = f.store.Login(ctx, "alice@example.com", "pw1")
	require.NoError(t, err)
	assert.False(t, res.NeedsVerification)

	st = f.store.State()
	require.True(t, st.IsAuthenticated)
	require.NotNil(t, st.User)
	assert.Equal(t, models.RoleViewer, st.User.Role)
	assert.Equal(t, "Alice", st.User.Name)
	assert.True(t, st.User.EmailVerified)
	assert.Len(t, st.RefreshToken, 64)

	claims, err := auth.ParseToken(st.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, st.User.ID, claims.UserID)
	assert.Equal(t, "viewer", claims.Role)
}

func TestStore_LoginRoleFromEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Register(ctx, "boss-admin@example.com", "Boss", "pw"))
	require.NoError(t, f.store.VerifyEmail(ctx, "boss-admin@example.com", f.lastCode(t, "boss-admin@example.com")))

	_, err := f.store.Login(ctx, "boss-admin@example.com", "pw")
	require.NoError(t, err)
	st := f.store.State()
	assert.Equal(t, models.RoleAdmin, st.User.Role)
	assert.Equal(t, models.RoleViewer, f.record(t, "boss-admin@example.com").Role, "stored role is not consulted")
}

func TestStore_LoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Register(ctx, "bob@example.com", "Bob", "right"))
	require.NoError(t, f.store.VerifyEmail(ctx, "bob@example.com", f.lastCode(t, "bob@example.com")))

	for _, tc := range []struct{ email, password string }{
		{"nobody@example.com", "right"},
		{"bob@example.com", "wrong"},
		{"BOB@example.com", "right"},
	} {
		_, err := f.store.Login(ctx, tc.email, tc.password)
		require.ErrorIs(t, err, common.ErrInvalidCredentials, tc.email)

		st := f.store.State()
		assert.False(t, st.IsAuthenticated)
		assert.Nil(t, st.User)
		assert.Empty(t, st.Token)
		assert.False(t, st.IsLoading)
		assert.Equal(t, common.ErrInvalidCredentials.Error(), st.Error)
	}

	f.store.ClearError()
	assert.Empty(t, f.store.State().Error)
}

func TestStore_LoginRecordsAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Register(ctx, "carol@example.com", "Carol", "pw"))
	require.NoError(t, f.store.VerifyEmail(ctx, "carol@example.com", f.lastCode(t, "carol@example.com")))

	_, err := f.store.Login(ctx, "carol@example.com", "bad")
	require.Error(t, err)
	_, err = f.store.Login(ctx, "carol@example.com", "pw")
	require.NoError(t, err)

	logs, err := f.backend.ListLogins(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.True(t, logs[0].Success, "newest first")
	assert.False(t, logs[1].Success)
	assert.Equal(t, "carol@example.com", logs[0].Email)
	assert.Equal(t, "127.0.0.1", logs[0].IPAddress)
	assert.Equal(t, "test", logs[0].UserAgent)
}

func TestStore_RegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Register(ctx, "dup@example.com", "A", "pw"))

	err := f.store.Register(ctx, "dup@example.com", "B", "pw")
	require.ErrorIs(t, err, common.ErrDuplicateEmail)
	assert.Equal(t, common.ErrDuplicateEmail.Error(), f.store.State().Error)
	assert.Equal(t, "A", f.record(t, "dup@example.com").Name)
}

func TestStore_RegisterEmailFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.outbox.SetFail(errors.New("smtp down"))

	err := f.store.Register(ctx, "eve@example.com", "Eve", "pw")
	require.ErrorIs(t, err, common.ErrEmailDispatchFailed)

	rec := f.record(t, "eve@example.com")
	assert.False(t, rec.Verified)
	assert.NotEmpty(t, rec.VerificationCode)
}

func TestStore_VerifyEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Register(ctx, "frank@example.com", "Frank", "pw"))
	code := f.lastCode(t, "frank@example.com")

	require.ErrorIs(t, f.store.VerifyEmail(ctx, "ghost@example.com", code), common.ErrUserNotFound)
	assert.Equal(t, "user not found, please check your email address", f.store.State().Error)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	require.ErrorIs(t, f.store.VerifyEmail(ctx, "frank@example.com", wrong), common.ErrCodeMismatch)
	assert.False(t, f.record(t, "frank@example.com").Verified)

	require.NoError(t, f.store.VerifyEmail(ctx, "frank@example.com", code))
	require.NoError(t, f.store.VerifyEmail(ctx, "frank@example.com", code), "codes are not consumed")
}

func TestStore_ResendVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Register(ctx, "gina@example.com", "Gina", "pw"))

	require.ErrorIs(t, f.store.ResendVerification(ctx, "ghost@example.com"), common.ErrUserNotFound)
	require.NoError(t, f.store.ResendVerification(ctx, "gina@example.com"))

	code := f.lastCode(t, "gina@example.com")
	assert.Equal(t, code, f.record(t, "gina@example.com").VerificationCode)
	assert.Len(t, f.outbox.Messages(), 2)
	require.NoError(t, f.store.VerifyEmail(ctx, "gina@example.com", code))
}

func TestStore_PasswordReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Register(ctx, "hank@example.com", "Hank", "old"))
	require.NoError(t, f.store.VerifyEmail(ctx, "hank@example.com", f.lastCode(t, "hank@example.com")))

	require.NoError(t, f.store.ResetPassword(ctx, "ghost@example.com"), "unknown addresses are not revealed")
	_, sent := f.outbox.Last("ghost@example.com")
	assert.False(t, sent)

	require.NoError(t, f.store.ResetPassword(ctx, "hank@example.com"))
	msg, ok := f.outbox.Last("hank@example.com")
	require.True(t, ok)
	assert.Equal(t, resetSubject, msg.Subject)
	code := f.lastCode(t, "hank@example.com")

	require.ErrorIs(t, f.store.ConfirmResetPassword(ctx, "ghost@example.com", code, "new"), common.ErrUserNotFound)
	require.ErrorIs(t, f.store.ConfirmResetPassword(ctx, "hank@example.com", "", "new"), common.ErrCodeMismatch)
	require.NoError(t, f.store.ConfirmResetPassword(ctx, "hank@example.com", code, "new"))
	require.ErrorIs(t, f.store.ConfirmResetPassword(ctx, "hank@example.com", code, "newer"), common.ErrCodeMismatch, "single use")

	_, err := f.store.Login(ctx, "hank@example.com", "old")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	_, err = f.store.Login(ctx, "hank@example.com", "new")
	require.NoError(t, err)
}

func TestStore_GoogleLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := identity.MintHMAC(assertionKey, assertionIssuer, "", "newbie@gmail.com", "", time.Minute)
	require.NoError(t, err)
	require.NoError(t, f.store.GoogleLogin(ctx, tok))

	st := f.store.State()
	require.True(t, st.IsAuthenticated)
	assert.Equal(t, "newbie", st.User.Name)
	assert.Equal(t, models.RoleViewer, st.User.Role)
	rec := f.record(t, "newbie@gmail.com")
	assert.True(t, rec.Verified)

	// existing unverified account is verified on assertion login
	require.NoError(t, f.store.Register(ctx, "team-analyst@example.com", "Ann", "pw"))
	f.store.Logout(ctx)
	tok, err = identity.MintHMAC(assertionKey, assertionIssuer, "", "team-analyst@example.com", "Ann", time.Minute)
	require.NoError(t, err)
	require.NoError(t, f.store.GoogleLogin(ctx, tok))
	assert.True(t, f.record(t, "team-analyst@example.com").Verified)
	assert.Equal(t, models.RoleAnalyst, f.store.State().User.Role)
}

func TestStore_GoogleLoginRejectsBadAssertion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	forged, err := identity.MintHMAC([]byte("other-key"), assertionIssuer, "", "mallory@gmail.com", "", time.Minute)
	require.NoError(t, err)

	for _, tok := range []string{"not-a-token", forged} {
		err := f.store.GoogleLogin(ctx, tok)
		require.ErrorIs(t, err, common.ErrMalformedAssertion)
		assert.False(t, f.store.State().IsAuthenticated)
	}

	page, err := f.backend.LookupUsers(ctx, models.ByEmail("mallory@gmail.com"))
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestStore_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.store.UpdateProfile(ctx, ProfilePatch{Name: models.Ptr("X")})
	require.ErrorIs(t, err, common.ErrNotAuthenticated)

	tok, err := identity.MintHMAC(assertionKey, assertionIssuer, "", "ivy@example.com", "Ivy", time.Minute)
	require.NoError(t, err)
	require.NoError(t, f.store.GoogleLogin(ctx, tok))

	require.NoError(t, f.store.UpdateProfile(ctx, ProfilePatch{Name: models.Ptr("Ivy B."), Avatar: models.Ptr("https://img/ivy.png")}))
	st := f.store.State()
	assert.Equal(t, "Ivy B.", st.User.Name)
	assert.Equal(t, "https://img/ivy.png", st.User.Avatar)

	restored := f.newStore()
	require.NoError(t, restored.Restore(ctx))
	assert.Equal(t, "Ivy B.", restored.State().User.Name)
}

func TestStore_LogoutIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := identity.MintHMAC(assertionKey, assertionIssuer, "", "jack@example.com", "Jack", time.Minute)
	require.NoError(t, err)
	require.NoError(t, f.store.GoogleLogin(ctx, tok))

	f.store.Logout(ctx)
	first := f.store.State()
	f.store.Logout(ctx)
	assert.Equal(t, first, f.store.State())
	assert.Equal(t, State{}, first)

	raw, err := f.repo.Get(ctx, common.SessionSlotKey)
	require.NoError(t, err)
	assert.Nil(t, raw, "slot cleared")
}

func TestStore_RestoreAcrossInstances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := identity.MintHMAC(assertionKey, assertionIssuer, "", "kate@example.com", "Kate", time.Minute)
	require.NoError(t, err)
	require.NoError(t, f.store.GoogleLogin(ctx, tok))
	want := f.store.State()

	raw, err := f.repo.Get(ctx, common.SessionSlotKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "isLoading")
	assert.NotContains(t, string(raw), "error")

	next := f.newStore()
	assert.False(t, next.State().IsAuthenticated)
	require.NoError(t, next.Restore(ctx))

	got := next.State()
	assert.True(t, got.IsAuthenticated)
	assert.Equal(t, want.Token, got.Token)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.Equal(t, want.User.Email, got.User.Email)
	assert.True(t, want.User.CreatedAt.Equal(got.User.CreatedAt))
}

func TestStore_RestoreDiscardsInconsistentEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.Set(ctx, common.SessionSlotKey,
		[]byte(`{"state":{"user":null,"token":"t","refreshToken":"r","isAuthenticated":true},"version":0}`)))

	require.NoError(t, f.store.Restore(ctx))
	assert.False(t, f.store.State().IsAuthenticated)

	raw, err := f.repo.Get(ctx, common.SessionSlotKey)
	require.NoError(t, err)
	assert.Nil(t, raw)

	require.NoError(t, f.repo.Set(ctx, common.SessionSlotKey, []byte(`not json`)))
	require.NoError(t, f.store.Restore(ctx))
	assert.False(t, f.store.State().IsAuthenticated)
}

func TestStore_CancelledCallClearsLoading(t *testing.T) {
	outbox := mailer.NewOutbox()
	svc := backend.NewService(users.NewMemoryRepository(), loginlogs.NewMemoryRepository(), outbox, logging.Nop(), time.Second)
	s := NewStore(svc, nil, nil, Config{}, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Login(ctx, "a@example.com", "pw")
	require.ErrorIs(t, err, context.Canceled)
	st := s.State()
	assert.False(t, st.IsLoading)
	assert.NotEmpty(t, st.Error)

	require.ErrorIs(t, s.GoogleLogin(context.Background(), "x"), common.ErrMalformedAssertion, "no verifier configured")
}

func TestRoleForEmail(t *testing.T) {
	tests := []struct {
		email string
		want  models.Role
	}{
		{"boss-admin@example.com", models.RoleAdmin},
		{"admin@example.com", models.RoleAdmin},
		{"analyst-admin@example.com", models.RoleAdmin},
		{"analyst@example.com", models.RoleAnalyst},
		{"ADMIN@example.com", models.RoleViewer},
		{"alice@example.com", models.RoleViewer},
		{"", models.RoleViewer},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleForEmail(tt.email))
		})
	}
}

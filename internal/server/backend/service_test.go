package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/insightpulse/internal/common"
	"github.com/dmitrijs2005/insightpulse/internal/logging"
	"github.com/dmitrijs2005/insightpulse/internal/models"
	"github.com/dmitrijs2005/insightpulse/internal/server/mailer"
	"github.com/dmitrijs2005/insightpulse/internal/server/repositories/loginlogs"
	"github.com/dmitrijs2005/insightpulse/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, latency time.Duration) (*Service, *mailer.Outbox) {
	t.Helper()
	out := mailer.NewOutbox()
	return NewService(users.NewMemoryRepository(), loginlogs.NewMemoryRepository(), out, logging.Nop(), latency), out
}

func TestService_UserLifecycle(t *testing.T) {
	s, _ := newService(t, 0)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, models.UserRecord{Email: "alice@example.com", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, created.Role, "role defaults to viewer")
	assert.NotZero(t, created.ID)

	_, err = s.CreateUser(ctx, models.UserRecord{Email: "alice@example.com"})
	require.ErrorIs(t, err, common.ErrDuplicateEmail)

	page, err := s.LookupUsers(ctx, models.ByEmail("alice@example.com"))
	require.NoError(t, err)
	require.Len(t, page.Records, 1)

	updated, err := s.UpdateUser(ctx, created.ID, models.UserPatch{Verified: models.Ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Verified)

	_, err = s.UpdateUser(ctx, 404, models.UserPatch{Verified: models.Ptr(true)})
	require.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, s.DeleteUser(ctx, created.ID))
	require.ErrorIs(t, s.DeleteUser(ctx, created.ID), common.ErrNotFound)
}

func TestService_LookupInvalidFilter(t *testing.T) {
	s, _ := newService(t, 0)
	_, err := s.LookupUsers(context.Background(), models.Query{Filters: []models.Filter{{Field: "name", Op: models.OpEqual}}})
	require.ErrorIs(t, err, common.ErrInvalidFilter)
}

func TestService_SendEmail(t *testing.T) {
	s, out := newService(t, 0)
	ctx := context.Background()

	require.NoError(t, s.SendEmail(ctx, models.Email{From: common.SupportSender, To: []string{"a@example.com"}, Subject: "Hi"}))
	msg, ok := out.Last("a@example.com")
	require.True(t, ok)
	assert.Equal(t, "Hi", msg.Subject)

	out.SetFail(errors.New("relay down"))
	require.Error(t, s.SendEmail(ctx, models.Email{To: []string{"a@example.com"}}))
}

func TestService_LoginLogs(t *testing.T) {
	s, _ := newService(t, 0)
	ctx := context.Background()
	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.RecordLogin(ctx, models.LoginLog{Email: "a@example.com", Success: true}))
	require.NoError(t, s.RecordLogin(ctx, models.LoginLog{ID: "explicit", Email: "b@example.com", Timestamp: fixed.Add(time.Hour)}))

	logs, err := s.ListLogins(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "explicit", logs[0].ID)
	assert.NotEmpty(t, logs[1].ID)
	assert.Equal(t, fixed, logs[1].Timestamp)
}

func TestService_LatencyHonoursContext(t *testing.T) {
	s, _ := newService(t, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.LookupUsers(ctx, models.Query{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestService_LatencyApplied(t *testing.T) {
	s, _ := newService(t, 30*time.Millisecond)

	start := time.Now()
	_, err := s.LookupUsers(context.Background(), models.Query{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

package loginlogs

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/insightpulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ListNewestFirst(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, r.Record(ctx, models.LoginLog{ID: "old", Timestamp: base}))
	require.NoError(t, r.Record(ctx, models.LoginLog{ID: "new", Timestamp: base.Add(time.Hour)}))
	require.NoError(t, r.Record(ctx, models.LoginLog{ID: "mid", Timestamp: base.Add(time.Minute)}))

	logs, err := r.List(ctx, 0)
	require.NoError(t, err)
	ids := []string{logs[0].ID, logs[1].ID, logs[2].ID}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)

	logs, err = r.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	logs[0].ID = "mutated"
	again, err := r.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", again[0].ID)
}

func TestMemory_SameTimestampLatestRecordedFirst(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, r.Record(ctx, models.LoginLog{ID: "first", Timestamp: ts}))
	require.NoError(t, r.Record(ctx, models.LoginLog{ID: "second", Timestamp: ts}))

	logs, err := r.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "second", logs[0].ID)
}

func TestPostgres_RecordAndList(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+login_logs`).
		WithArgs("l1", "1", "a@example.com", ts, true, "192.168.0.1", "ua").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, email, ts, success, ip_address, user_agent FROM login_logs ORDER BY ts DESC LIMIT $1`)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "email", "ts", "success", "ip_address", "user_agent"}).
			AddRow("l1", "1", "a@example.com", ts, true, "192.168.0.1", "ua"))

	require.NoError(t, repo.Record(context.Background(), models.LoginLog{
		ID: "l1", UserID: "1", Email: "a@example.com", Timestamp: ts, Success: true, IPAddress: "192.168.0.1", UserAgent: "ua",
	}))

	logs, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "a@example.com", logs[0].Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RecordError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT`).WillReturnError(errors.New("db down"))

	err = NewPostgresRepository(db).Record(context.Background(), models.LoginLog{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

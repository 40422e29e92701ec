package client

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/insightpulse/internal/client/migrations"
	"github.com/dmitrijs2005/insightpulse/internal/filex"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// OpenStateDB opens (creating if needed) the SQLite file at dsn and migrates
// it. ":memory:" gives a throwaway database held on a single connection.
func OpenStateDB(ctx context.Context, dsn string) (*sql.DB, error) {
	if err := filex.EnsureParentDir(dsn); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

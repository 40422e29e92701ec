// Package repomanager hands out the backend repositories for the configured
// storage and owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/insightpulse/internal/dbx"
	"github.com/dmitrijs2005/insightpulse/internal/server/repositories/loginlogs"
	"github.com/dmitrijs2005/insightpulse/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX. Implementations that
// do not use a database ignore the handle.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	LoginLogs(db dbx.DBTX) loginlogs.Repository
}

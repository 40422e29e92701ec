package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/insightpulse/internal/dbx"
	"github.com/dmitrijs2005/insightpulse/internal/server/repositories/loginlogs"
	"github.com/dmitrijs2005/insightpulse/internal/server/repositories/users"
)

// InMemoryRepositoryManager returns the same in-memory repositories on every
// call, so all callers see one collection.
type InMemoryRepositoryManager struct {
	users     *users.MemoryRepository
	loginLogs *loginlogs.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users:     users.NewMemoryRepository(),
		loginLogs: loginlogs.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) LoginLogs(dbx.DBTX) loginlogs.Repository {
	return m.loginLogs
}

package backend

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/insightpulse/internal/cryptox"
	"github.com/dmitrijs2005/insightpulse/internal/models"
	"github.com/dmitrijs2005/insightpulse/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	repo := users.NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, Seed(ctx, repo, DemoAccounts[:1], 3))
	require.NoError(t, Seed(ctx, repo, DemoAccounts[:1], 3), "reseeding skips existing accounts")

	page, err := repo.Lookup(ctx, models.Query{})
	require.NoError(t, err)
	require.Equal(t, 4, page.Total)

	admin := page.Records[0]
	assert.Equal(t, "admin@example.com", admin.Email)
	assert.True(t, admin.Verified)
	assert.True(t, cryptox.CheckPassword("admin123", admin.PasswordSalt, admin.PasswordVerifier))

	roles := []models.Role{page.Records[1].Role, page.Records[2].Role, page.Records[3].Role}
	assert.Equal(t, []models.Role{models.RoleAdmin, models.RoleAnalyst, models.RoleViewer}, roles)
	assert.Equal(t, "user2@example.com", page.Records[2].Email)
}

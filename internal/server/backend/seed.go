package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/insightpulse/internal/common"
	"github.com/dmitrijs2005/insightpulse/internal/cryptox"
	"github.com/dmitrijs2005/insightpulse/internal/models"
	"github.com/dmitrijs2005/insightpulse/internal/server/repositories/users"
)

// Account is a verified user created at startup so the dashboard can be
// explored without registering.
type Account struct {
	Email    string
	Name     string
	Password string
	Role     models.Role
}

// DemoAccounts covers one account per role. The session derives roles from
// the address, so each email contains its role name.
var DemoAccounts = []Account{
	{Email: "admin@example.com", Name: "Demo Admin", Password: "admin123", Role: models.RoleAdmin},
	{Email: "analyst@example.com", Name: "Demo Analyst", Password: "analyst123", Role: models.RoleAnalyst},
	{Email: "viewer@example.com", Name: "Demo Viewer", Password: "viewer123", Role: models.RoleViewer},
}

// Seed creates the given accounts plus count generated directory users
// (user<i>@example.com, password "password123", roles cycling). Accounts that
// already exist are skipped, so seeding a persistent store is repeatable.
func Seed(ctx context.Context, repo users.Repository, accounts []Account, count int) error {
	all := append([]Account(nil), accounts...)
	for i := 1; i <= count; i++ {
		all = append(all, Account{
			Email:    fmt.Sprintf("user%d@example.com", i),
			Name:     fmt.Sprintf("User %d", i),
			Password: "password123",
			Role:     models.Roles[(i-1)%len(models.Roles)],
		})
	}

	for _, a := range all {
		salt, verifier := cryptox.HashPassword(a.Password)
		_, err := repo.Create(ctx, &models.UserRecord{
			Email:            a.Email,
			Name:             a.Name,
			Role:             a.Role,
			PasswordSalt:     salt,
			PasswordVerifier: verifier,
			Verified:         true,
		})
		if err != nil && !errors.Is(err, common.ErrDuplicateEmail) {
			return fmt.Errorf("seed %s: %w", a.Email, err)
		}
	}
	return nil
}

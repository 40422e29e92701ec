package directory

import (
	"context"

	"github.com/dmitrijs2005/insightpulse/internal/models"
)

// Source is where the admin console's users and login logs come from.
type Source interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	// ListLoginLogs returns logs newest first. users is the currently
	// loaded directory, which a source may draw from.
	ListLoginLogs(ctx context.Context, users []models.User) ([]models.LoginLog, error)
	CreateUser(ctx context.Context, nu NewUser) (models.User, error)
	// UpdateUser applies patch to current and returns the result.
	UpdateUser(ctx context.Context, current models.User, patch UserPatch) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// NewUser is what the console asks for when adding an account. An empty
// Password gets a random one.
type NewUser struct {
	Email         string
	Name          string
	Role          models.Role
	Avatar        string
	EmailVerified bool
	Password      string
}

// UserPatch holds editable fields; nil means unchanged.
type UserPatch struct {
	Email         *string
	Name          *string
	Role          *models.Role
	Avatar        *string
	EmailVerified *bool
}

func (p UserPatch) apply(u models.User) models.User {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.EmailVerified != nil {
		u.EmailVerified = *p.EmailVerified
	}
	return u
}

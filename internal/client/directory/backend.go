package directory

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/insightpulse/internal/client/client"
	"github.com/dmitrijs2005/insightpulse/internal/common"
	"github.com/dmitrijs2005/insightpulse/internal/cryptox"
	"github.com/dmitrijs2005/insightpulse/internal/models"
	"github.com/google/uuid"
)

// BackendSource reads and writes the backend's user collection, the same
// one the session signs in against. Roles shown here are the stored ones.
type BackendSource struct {
	backend  client.Backend
	logLimit int
}

func NewBackendSource(b client.Backend, logLimit int) *BackendSource {
	if logLimit <= 0 {
		logLimit = DefaultLogCount
	}
	return &BackendSource{backend: b, logLimit: logLimit}
}

func (s *BackendSource) ListUsers(ctx context.Context) ([]models.User, error) {
	page, err := s.backend.LookupUsers(ctx, models.Query{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]models.User, 0, len(page.Records))
	for _, rec := range page.Records {
		users = append(users, rec.ToUser())
	}
	return users, nil
}

func (s *BackendSource) ListLoginLogs(ctx context.Context, _ []models.User) ([]models.LoginLog, error) {
	logs, err := s.backend.ListLogins(ctx, s.logLimit)
	if err != nil {
		return nil, fmt.Errorf("list login logs: %w", err)
	}
	return logs, nil
}

func (s *BackendSource) CreateUser(ctx context.Context, nu NewUser) (models.User, error) {
	password := nu.Password
	if password == "" {
		password = uuid.NewString()
	}
	salt, verifier := cryptox.HashPassword(password)

	rec, err := s.backend.CreateUser(ctx, models.UserRecord{
		Email:            nu.Email,
		Name:             nu.Name,
		Role:             nu.Role,
		Avatar:           nu.Avatar,
		PasswordSalt:     salt,
		PasswordVerifier: verifier,
		Verified:         nu.EmailVerified,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return rec.ToUser(), nil
}

func parseID(id string) (int64, error) {
	n, err := models.ParseUserID(id)
	if err != nil {
		return 0, fmt.Errorf("user %q: %w", id, common.ErrNotFound)
	}
	return n, nil
}

func (s *BackendSource) UpdateUser(ctx context.Context, current models.User, patch UserPatch) (models.User, error) {
	id, err := parseID(current.ID)
	if err != nil {
		return models.User{}, err
	}
	rec, err := s.backend.UpdateUser(ctx, id, models.UserPatch{
		Email:    patch.Email,
		Name:     patch.Name,
		Role:     patch.Role,
		Avatar:   patch.Avatar,
		Verified: patch.EmailVerified,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return rec.ToUser(), nil
}

func (s *BackendSource) DeleteUser(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.backend.DeleteUser(ctx, n); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

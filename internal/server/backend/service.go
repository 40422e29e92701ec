// Package backend is the Mock Backend: the user collection, the login log
// and an email stub behind one service that delays every call by a fixed
// latency to imitate a remote API.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/insightpulse/internal/logging"
	"github.com/dmitrijs2005/insightpulse/internal/models"
	"github.com/dmitrijs2005/insightpulse/internal/server/mailer"
	"github.com/dmitrijs2005/insightpulse/internal/server/repositories/loginlogs"
	"github.com/dmitrijs2005/insightpulse/internal/server/repositories/users"
	"github.com/dmitrijs2005/insightpulse/internal/timex"
	"github.com/google/uuid"
)

// DefaultLatency is the artificial delay applied before each operation.
const DefaultLatency = 500 * time.Millisecond

type Service struct {
	users   users.Repository
	logins  loginlogs.Repository
	mailer  mailer.Mailer
	logger  logging.Logger
	latency time.Duration
	now     func() time.Time
}

func NewService(u users.Repository, l loginlogs.Repository, m mailer.Mailer, logger logging.Logger, latency time.Duration) *Service {
	return &Service{
		users:   u,
		logins:  l,
		mailer:  m,
		logger:  logger.With("module", "backend"),
		latency: latency,
		now:     time.Now,
	}
}

func (s *Service) wait(ctx context.Context) error {
	return timex.Sleep(ctx, s.latency)
}

func (s *Service) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Service) LookupUsers(ctx context.Context, q models.Query) (models.UserPage, error) {
	if err := s.wait(ctx); err != nil {
		return models.UserPage{}, err
	}
	page, err := s.users.Lookup(ctx, q)
	if err != nil {
		return models.UserPage{}, fmt.Errorf("lookup users: %w", err)
	}
	return page, nil
}

func (s *Service) CreateUser(ctx context.Context, rec models.UserRecord) (models.UserRecord, error) {
	if err := s.wait(ctx); err != nil {
		return models.UserRecord{}, err
	}
	if rec.Role == "" {
		rec.Role = models.RoleViewer
	}
	created, err := s.users.Create(ctx, &rec)
	if err != nil {
		return models.UserRecord{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.Debug(ctx, "user created", "id", created.ID, "email", created.Email)
	return *created, nil
}

func (s *Service) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (models.UserRecord, error) {
	if err := s.wait(ctx); err != nil {
		return models.UserRecord{}, err
	}
	updated, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return models.UserRecord{}, fmt.Errorf("update user %d: %w", id, err)
	}
	return *updated, nil
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

func (s *Service) SendEmail(ctx context.Context, email models.Email) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// RecordLogin stores a login log, filling in a missing id or timestamp.
func (s *Service) RecordLogin(ctx context.Context, log models.LoginLog) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = s.now().UTC()
	}
	if err := s.logins.Record(ctx, log); err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

func (s *Service) ListLogins(ctx context.Context, limit int) ([]models.LoginLog, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	logs, err := s.logins.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list logins: %w", err)
	}
	return logs, nil
}

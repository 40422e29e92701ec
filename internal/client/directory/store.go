// Package directory is the admin console's view of user accounts and their
// login history.
package directory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/insightpulse/internal/common"
	"github.com/dmitrijs2005/insightpulse/internal/logging"
	"github.com/dmitrijs2005/insightpulse/internal/models"
)

type State struct {
	Users     []models.User
	LoginLogs []models.LoginLog
	Selected  *models.User
	IsLoading bool
	Error     string
}

type Store struct {
	mu     sync.Mutex
	state  State
	source Source
	logger logging.Logger
}

func NewStore(source Source, logger logging.Logger) *Store {
	return &Store{source: source, logger: logger.With("module", "directory")}
}

// State returns a copy of the store's state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Users = slices.Clone(s.state.Users)
	st.LoginLogs = slices.Clone(s.state.LoginLogs)
	if s.state.Selected != nil {
		u := *s.state.Selected
		st.Selected = &u
	}
	return st
}

func (s *Store) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *Store) begin() {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *Store) finish(err error) error {
	s.mu.Lock()
	s.state.IsLoading = false
	if err != nil {
		s.state.Error = err.Error()
	}
	s.mu.Unlock()
	return err
}

func (s *Store) FetchUsers(ctx context.Context) error {
	s.begin()

	users, err := s.source.ListUsers(ctx)
	if err != nil {
		return s.finish(fmt.Errorf("fetch users: %w", err))
	}

	s.mu.Lock()
	s.state.Users = users
	s.mu.Unlock()
	return s.finish(nil)
}

// FetchLoginLogs loads login history for the loaded users, or for a fresh
// listing when none are loaded.
func (s *Store) FetchLoginLogs(ctx context.Context) error {
	s.begin()

	s.mu.Lock()
	users := slices.Clone(s.state.Users)
	s.mu.Unlock()

	logs, err := s.source.ListLoginLogs(ctx, users)
	if err != nil {
		return s.finish(fmt.Errorf("fetch login logs: %w", err))
	}

	s.mu.Lock()
	s.state.LoginLogs = logs
	s.mu.Unlock()
	return s.finish(nil)
}

func (s *Store) CreateUser(ctx context.Context, nu NewUser) (models.User, error) {
	s.begin()

	if nu.Role == "" {
		nu.Role = models.RoleViewer
	}
	if !nu.Role.Valid() {
		return models.User{}, s.finish(fmt.Errorf("unknown role %q", nu.Role))
	}

	u, err := s.source.CreateUser(ctx, nu)
	if err != nil {
		return models.User{}, s.finish(err)
	}

	s.mu.Lock()
	s.state.Users = append(s.state.Users, u)
	s.mu.Unlock()

	s.logger.Info(ctx, "user created", "id", u.ID, "email", u.Email, "role", u.Role)
	return u, s.finish(nil)
}

func (s *Store) find(id string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.state.Users, func(u models.User) bool { return u.ID == id })
	if i < 0 {
		return models.User{}, false
	}
	return s.state.Users[i], true
}

// UpdateUser changes a loaded user. Unknown ids fail with common.ErrNotFound.
func (s *Store) UpdateUser(ctx context.Context, id string, patch UserPatch) error {
	s.begin()

	if patch.Role != nil && !patch.Role.Valid() {
		return s.finish(fmt.Errorf("unknown role %q", *patch.Role))
	}
	current, ok := s.find(id)
	if !ok {
		return s.finish(fmt.Errorf("user %s: %w", id, common.ErrNotFound))
	}

	updated, err := s.source.UpdateUser(ctx, current, patch)
	if err != nil {
		return s.finish(err)
	}

	s.mu.Lock()
	for i := range s.state.Users {
		if s.state.Users[i].ID == id {
			s.state.Users[i] = updated
		}
	}
	if s.state.Selected != nil && s.state.Selected.ID == id {
		s.state.Selected = &updated
	}
	s.mu.Unlock()
	return s.finish(nil)
}

func (s *Store) UpdateUserRole(ctx context.Context, id string, role models.Role) error {
	return s.UpdateUser(ctx, id, UserPatch{Role: &role})
}

// DeleteUser removes a loaded user. Unknown ids fail with common.ErrNotFound.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.begin()

	if _, ok := s.find(id); !ok {
		return s.finish(fmt.Errorf("user %s: %w", id, common.ErrNotFound))
	}
	if err := s.source.DeleteUser(ctx, id); err != nil {
		return s.finish(err)
	}

	s.mu.Lock()
	s.state.Users = slices.DeleteFunc(s.state.Users, func(u models.User) bool { return u.ID == id })
	if s.state.Selected != nil && s.state.Selected.ID == id {
		s.state.Selected = nil
	}
	s.mu.Unlock()

	s.logger.Info(ctx, "user deleted", "id", id)
	return s.finish(nil)
}

// SelectUser focuses a loaded user. An empty or unknown id clears the
// selection.
func (s *Store) SelectUser(id string) {
	u, ok := s.find(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" || !ok {
		s.state.Selected = nil
		return
	}
	s.state.Selected = &u
}

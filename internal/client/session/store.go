// Package session holds the client's authentication state and the flows that
// change it: password and assertion login, registration, email verification,
// password reset, profile edits and logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/dmitrijs2005/insightpulse/internal/auth"
	"github.com/dmitrijs2005/insightpulse/internal/client/client"
	"github.com/dmitrijs2005/insightpulse/internal/client/identity"
	"github.com/dmitrijs2005/insightpulse/internal/common"
	"github.com/dmitrijs2005/insightpulse/internal/cryptox"
	"github.com/dmitrijs2005/insightpulse/internal/logging"
	"github.com/dmitrijs2005/insightpulse/internal/models"
	"github.com/dmitrijs2005/insightpulse/internal/timex"
	"github.com/google/uuid"
)

// MsgVerificationRequired is left on State.Error when a password login stops
// because the account is not verified yet.
const MsgVerificationRequired = "Please verify your email before logging in."

const (
	DefaultAccessTTL = 15 * time.Minute
	DefaultDelay     = 800 * time.Millisecond

	refreshTokenSize = 32
)

// Config tunes a Store. Zero values fall back to defaults, except Delay,
// where zero means no delay.
type Config struct {
	Secret    []byte
	AccessTTL time.Duration
	// Delay is the local pause applied by UpdateProfile.
	Delay  time.Duration
	Sender string
	// ClientIP and UserAgent are stamped on recorded login logs.
	ClientIP  string
	UserAgent string
}

type Store struct {
	mu       sync.Mutex
	state    State
	backend  client.Backend
	verifier identity.Verifier
	slot     *Slot
	cfg      Config
	logger   logging.Logger
}

// NewStore builds an anonymous session. slot and verifier may be nil: without
// a slot nothing is persisted, without a verifier GoogleLogin always fails.
func NewStore(backend client.Backend, verifier identity.Verifier, slot *Slot, cfg Config, logger logging.Logger) *Store {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.Sender == "" {
		cfg.Sender = common.SupportSender
	}
	if len(cfg.Secret) == 0 {
		cfg.Secret = common.GenerateRandByteArray(32)
	}
	return &Store{
		backend:  backend,
		verifier: verifier,
		slot:     slot,
		cfg:      cfg,
		logger:   logger.With("module", "session"),
	}
}

// State returns a copy of the current session.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
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

// finish ends an action, recording err (if any) as the visible message.
func (s *Store) finish(err error) error {
	s.mu.Lock()
	s.state.IsLoading = false
	if err != nil {
		s.state.Error = err.Error()
	}
	s.mu.Unlock()
	return err
}

func (s *Store) lookup(ctx context.Context, email string) (*models.UserRecord, error) {
	page, err := s.backend.LookupUsers(ctx, models.ByEmail(email))
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if len(page.Records) == 0 {
		return nil, nil
	}
	rec := page.Records[0]
	return &rec, nil
}

// signIn moves the session to Authenticated for rec and persists it.
func (s *Store) signIn(ctx context.Context, rec models.UserRecord) error {
	user := rec.ToUser()
	user.Role = RoleForEmail(rec.Email)

	token, err := auth.GenerateToken(user.ID, string(user.Role), s.cfg.Secret, s.cfg.AccessTTL)
	if err != nil {
		return fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := common.MakeRandHexString(refreshTokenSize)
	if err != nil {
		return fmt.Errorf("issue refresh token: %w", err)
	}

	s.mu.Lock()
	s.state.User = &user
	s.state.Token = token
	s.state.RefreshToken = refresh
	s.state.IsAuthenticated = true
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// persist writes the durable fields. Failures are logged and otherwise
// ignored: the in-memory session stays valid.
func (s *Store) persist(ctx context.Context) {
	if s.slot == nil {
		return
	}
	if err := s.slot.Save(ctx, s.State()); err != nil {
		s.logger.Warn(ctx, "persist session failed", "error", err)
	}
}

func (s *Store) recordLogin(ctx context.Context, rec *models.UserRecord, email string, success bool) {
	s.logger.Info(ctx, "login attempt", "email", email, "success", success)
	if rec == nil {
		return
	}
	err := s.backend.RecordLogin(ctx, models.LoginLog{
		UserID:    models.UserID(rec.ID),
		Email:     email,
		Success:   success,
		IPAddress: s.cfg.ClientIP,
		UserAgent: s.cfg.UserAgent,
	})
	if err != nil {
		s.logger.Warn(ctx, "record login failed", "email", email, "error", err)
	}
}

// Login signs in with email and password. An unverified account yields
// NeedsVerification and a nil error; the session stays anonymous.
func (s *Store) Login(ctx context.Context, email, password string) (LoginResult, error) {
	s.begin()

	rec, err := s.lookup(ctx, email)
	if err != nil {
		return LoginResult{}, s.finish(err)
	}
	if rec == nil || !cryptox.CheckPassword(password, rec.PasswordSalt, rec.PasswordVerifier) {
		s.recordLogin(ctx, rec, email, false)
		return LoginResult{}, s.finish(common.ErrInvalidCredentials)
	}

	if !rec.Verified {
		s.recordLogin(ctx, rec, email, false)
		s.mu.Lock()
		s.state.IsLoading = false
		s.state.Error = MsgVerificationRequired
		s.mu.Unlock()
		return LoginResult{NeedsVerification: true, Email: email}, nil
	}

	if err := s.signIn(ctx, *rec); err != nil {
		return LoginResult{}, s.finish(err)
	}
	s.recordLogin(ctx, rec, email, true)
	return LoginResult{}, s.finish(nil)
}

// GoogleLogin signs in with a third-party identity assertion, creating or
// verifying the backend record as needed.
func (s *Store) GoogleLogin(ctx context.Context, assertion string) error {
	s.begin()

	if s.verifier == nil {
		return s.finish(common.ErrMalformedAssertion)
	}
	id, err := s.verifier.Verify(ctx, assertion)
	if err != nil {
		s.logger.Debug(ctx, "assertion rejected", "error", err)
		if !errors.Is(err, common.ErrMalformedAssertion) {
			err = fmt.Errorf("%w: %w", common.ErrMalformedAssertion, err)
		}
		return s.finish(err)
	}

	rec, err := s.ensureVerified(ctx, id)
	if err != nil {
		return s.finish(err)
	}
	if err := s.signIn(ctx, *rec); err != nil {
		return s.finish(err)
	}
	s.recordLogin(ctx, rec, id.Email, true)
	return s.finish(nil)
}

func (s *Store) ensureVerified(ctx context.Context, id identity.Identity) (*models.UserRecord, error) {
	rec, err := s.lookup(ctx, id.Email)
	if err != nil {
		return nil, err
	}

	if rec == nil {
		salt, verifier := cryptox.HashPassword(uuid.NewString())
		created, err := s.backend.CreateUser(ctx, models.UserRecord{
			Email:            id.Email,
			Name:             id.Name,
			Role:             models.RoleViewer,
			PasswordSalt:     salt,
			PasswordVerifier: verifier,
			Verified:         true,
		})
		switch {
		case err == nil:
			return &created, nil
		case errors.Is(err, common.ErrDuplicateEmail):
			// created concurrently; fall through to the existing record
			if rec, err = s.lookup(ctx, id.Email); err != nil {
				return nil, err
			}
			if rec == nil {
				return nil, common.ErrUserNotFound
			}
		default:
			return nil, fmt.Errorf("create user: %w", err)
		}
	}

	if !rec.Verified {
		updated, err := s.backend.UpdateUser(ctx, rec.ID, models.UserPatch{Verified: models.Ptr(true)})
		if err != nil {
			return nil, fmt.Errorf("verify user: %w", err)
		}
		rec = &updated
	}
	return rec, nil
}

// Register creates an unverified account and mails its verification code.
// When the mail cannot be sent the account still exists.
func (s *Store) Register(ctx context.Context, email, name, password string) error {
	s.begin()

	existing, err := s.lookup(ctx, email)
	if err != nil {
		return s.finish(err)
	}
	if existing != nil {
		return s.finish(common.ErrDuplicateEmail)
	}

	code, err := common.NewVerificationCode()
	if err != nil {
		return s.finish(err)
	}
	salt, verifier := cryptox.HashPassword(password)
	rec, err := s.backend.CreateUser(ctx, models.UserRecord{
		Email:            email,
		Name:             name,
		Role:             models.RoleViewer,
		PasswordSalt:     salt,
		PasswordVerifier: verifier,
		VerificationCode: code,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return s.finish(common.ErrDuplicateEmail)
		}
		return s.finish(fmt.Errorf("create user: %w", err))
	}

	s.logger.Info(ctx, "user registered", "email", email, "id", rec.ID)
	return s.finish(s.mailCode(ctx, verificationTmpl, verificationSubject, rec.Email, rec.Name, code))
}

func (s *Store) mailCode(ctx context.Context, tmpl *template.Template, subject, to, name, code string) error {
	body, err := render(tmpl, codeMail{Name: name, Code: code})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrEmailDispatchFailed, err)
	}
	err = s.backend.SendEmail(ctx, models.Email{
		From:    s.cfg.Sender,
		To:      []string{to},
		Subject: subject,
		HTML:    body,
	})
	if err != nil {
		s.logger.Warn(ctx, "email dispatch failed", "to", to, "subject", subject, "error", err)
		return common.ErrEmailDispatchFailed
	}
	return nil
}

// ResendVerification issues and mails a fresh verification code.
func (s *Store) ResendVerification(ctx context.Context, email string) error {
	s.begin()

	rec, err := s.lookup(ctx, email)
	if err != nil {
		return s.finish(err)
	}
	if rec == nil {
		return s.finish(common.ErrUserNotFound)
	}

	code, err := common.NewVerificationCode()
	if err != nil {
		return s.finish(err)
	}
	if _, err := s.backend.UpdateUser(ctx, rec.ID, models.UserPatch{VerificationCode: &code}); err != nil {
		return s.finish(fmt.Errorf("store verification code: %w", err))
	}
	return s.finish(s.mailCode(ctx, verificationTmpl, verificationSubject, rec.Email, rec.Name, code))
}

// VerifyEmail marks the account verified when code matches. The code stays
// on the record.
func (s *Store) VerifyEmail(ctx context.Context, email, code string) error {
	s.begin()

	rec, err := s.lookup(ctx, email)
	if err != nil {
		return s.finish(err)
	}
	if rec == nil {
		return s.finish(common.ErrUserNotFound)
	}
	if code == "" || rec.VerificationCode != code {
		return s.finish(common.ErrCodeMismatch)
	}

	if _, err := s.backend.UpdateUser(ctx, rec.ID, models.UserPatch{Verified: models.Ptr(true)}); err != nil {
		return s.finish(fmt.Errorf("verify user: %w", err))
	}

	s.mu.Lock()
	patched := s.state.User != nil && s.state.User.Email == email
	if patched {
		s.state.User.EmailVerified = true
	}
	s.mu.Unlock()
	if patched {
		s.persist(ctx)
	}
	return s.finish(nil)
}

// ResetPassword mails a single-use reset code. Unknown addresses succeed
// silently.
func (s *Store) ResetPassword(ctx context.Context, email string) error {
	s.begin()

	rec, err := s.lookup(ctx, email)
	if err != nil {
		return s.finish(err)
	}
	if rec == nil {
		s.logger.Debug(ctx, "reset requested for unknown email", "email", email)
		return s.finish(nil)
	}

	code, err := common.NewVerificationCode()
	if err != nil {
		return s.finish(err)
	}
	if _, err := s.backend.UpdateUser(ctx, rec.ID, models.UserPatch{ResetCode: &code}); err != nil {
		return s.finish(fmt.Errorf("store reset code: %w", err))
	}
	return s.finish(s.mailCode(ctx, resetTmpl, resetSubject, rec.Email, rec.Name, code))
}

// ConfirmResetPassword sets a new password if code is the outstanding reset
// code, then clears it.
func (s *Store) ConfirmResetPassword(ctx context.Context, email, code, newPassword string) error {
	s.begin()

	rec, err := s.lookup(ctx, email)
	if err != nil {
		return s.finish(err)
	}
	if rec == nil {
		return s.finish(common.ErrUserNotFound)
	}
	if rec.ResetCode == "" || rec.ResetCode != code {
		return s.finish(common.ErrCodeMismatch)
	}

	salt, verifier := cryptox.HashPassword(newPassword)
	_, err = s.backend.UpdateUser(ctx, rec.ID, models.UserPatch{
		PasswordSalt:     salt,
		PasswordVerifier: verifier,
		ResetCode:        models.Ptr(""),
	})
	if err != nil {
		return s.finish(fmt.Errorf("store password: %w", err))
	}
	s.logger.Info(ctx, "password reset", "email", email)
	return s.finish(nil)
}

// UpdateProfile edits the signed-in user's name and avatar.
func (s *Store) UpdateProfile(ctx context.Context, patch ProfilePatch) error {
	s.begin()

	s.mu.Lock()
	signedIn := s.state.User != nil
	s.mu.Unlock()
	if !signedIn {
		return s.finish(common.ErrNotAuthenticated)
	}

	if err := timex.Sleep(ctx, s.cfg.Delay); err != nil {
		return s.finish(err)
	}

	s.mu.Lock()
	if s.state.User == nil {
		s.mu.Unlock()
		return s.finish(common.ErrNotAuthenticated)
	}
	if patch.Name != nil {
		s.state.User.Name = *patch.Name
	}
	if patch.Avatar != nil {
		s.state.User.Avatar = *patch.Avatar
	}
	s.mu.Unlock()

	s.persist(ctx)
	return s.finish(nil)
}

// Logout forgets the session locally. It never fails and never calls the
// backend.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.state.User = nil
	s.state.Token = ""
	s.state.RefreshToken = ""
	s.state.IsAuthenticated = false
	s.mu.Unlock()

	if s.slot == nil {
		return
	}
	if err := s.slot.Clear(ctx); err != nil {
		s.logger.Warn(ctx, "clear session slot failed", "error", err)
	}
}

// Restore loads the persisted session, if any. An entry whose authenticated
// flag disagrees with its credentials is discarded.
func (s *Store) Restore(ctx context.Context) error {
	if s.slot == nil {
		return nil
	}
	st, err := s.slot.Load(ctx)
	if err != nil {
		s.logger.Warn(ctx, "discarding unreadable session", "error", err)
		return s.slot.Clear(ctx)
	}
	if st == nil {
		return nil
	}
	if !st.valid() {
		s.logger.Warn(ctx, "discarding inconsistent session")
		return s.slot.Clear(ctx)
	}

	s.mu.Lock()
	s.state.User = st.User
	s.state.Token = st.Token
	s.state.RefreshToken = st.RefreshToken
	s.state.IsAuthenticated = st.IsAuthenticated
	s.mu.Unlock()
	return nil
}

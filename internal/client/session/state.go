package session

import "github.com/dmitrijs2005/insightpulse/internal/models"

// State is a snapshot of the session.
//
// IsAuthenticated is true exactly when User and Token are both set.
// IsLoading and Error describe the last action and are never persisted.
type State struct {
	User            *models.User
	Token           string
	RefreshToken    string
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// valid reports whether the authenticated flag agrees with the credentials.
func (s State) valid() bool {
	return s.IsAuthenticated == (s.User != nil && s.Token != "")
}

// LoginResult tells the caller whether a password login stopped at the
// verification step. Email is the address to verify.
type LoginResult struct {
	NeedsVerification bool
	Email             string
}

// ProfilePatch holds the editable profile fields; nil means unchanged.
type ProfilePatch struct {
	Name   *string
	Avatar *string
}

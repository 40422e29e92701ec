// Package guard decides whether a page may be shown for the current session
// and where to send the user otherwise.
package guard

import (
	"slices"

	"github.com/dmitrijs2005/insightpulse/internal/client/session"
	"github.com/dmitrijs2005/insightpulse/internal/models"
)

const (
	LoginPath   = "/login"
	LandingPath = "/dashboard"

	AccessDenied = "Access Denied: You don't have permission to access this page."
)

type Outcome int

const (
	Render Outcome = iota
	RedirectLogin
	RedirectLanding
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect-login"
	case RedirectLanding:
		return "redirect-landing"
	case NotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// Decision is the result of a guard check. Path is where the user ends up;
// From is the originally requested location on a login redirect; Notice is
// a message to show without blocking.
type Decision struct {
	Outcome Outcome
	Path    string
	From    string
	Notice  string
}

// Check guards a page. An empty allowed set admits any authenticated user.
func Check(state session.State, allowed []models.Role, location string) Decision {
	if !state.IsAuthenticated || state.User == nil {
		return Decision{Outcome: RedirectLogin, Path: LoginPath, From: location}
	}
	if len(allowed) > 0 && !slices.Contains(allowed, state.User.Role) {
		return Decision{Outcome: RedirectLanding, Path: LandingPath, Notice: AccessDenied}
	}
	return Decision{Outcome: Render, Path: location}
}
